package rule

import (
	"bytes"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// parsedPattern is one (name, regex) pair extracted from a rule document,
// plus the optional per-entry metadata that rode along with it.
type parsedPattern struct {
	Name        string
	Regex       string
	Description string
	Keywords    []string
}

// parseDocument extracts (name, regex) pairs from one rule document in
// document order.
//
// The document shape is a root mapping with a "patterns" list whose entries
// each wrap a "pattern" mapping holding "name" and "regex" scalars. Pairing
// runs as one state machine across the whole document: a non-empty "name"
// value arms the pending name, and the next "regex" value emits the pair and
// disarms. The machine is deliberately lax about misordered fields instead
// of rejecting them: a "regex" with no name pending is consumed and dropped,
// a second "name" before any "regex" overwrites the first, and a name left
// dangling at the end of one entry pairs with the next entry's regex.
// Name-before-regex is the authoring contract; anything else degrades, it
// does not fail.
//
// A structural YAML error terminates the parse at the error, not the
// document: pairs completed above the reported error line still load, via
// a retry of the longest parseable prefix, and only when no prefix parses
// does the document contribute nothing. Either way parsing never errors.
// Entries of the wrong shape are skipped without disturbing the machine
// state.
func parseDocument(data []byte) []parsedPattern {
	doc := new(yaml.Node)
	if err := yaml.Unmarshal(data, doc); err != nil {
		if doc = salvagePrefix(data, err); doc == nil {
			return nil
		}
	}
	root := documentRoot(doc)
	if root == nil || root.Kind != yaml.MappingNode {
		return nil
	}
	entries := mappingValue(root, "patterns")
	if entries == nil || entries.Kind != yaml.SequenceNode {
		return nil
	}

	var st parseState
	for _, entry := range entries.Content {
		if entry.Kind != yaml.MappingNode {
			continue
		}
		inner := mappingValue(entry, "pattern")
		if inner == nil || inner.Kind != yaml.MappingNode {
			continue
		}
		st.feedEntry(inner)
	}
	return st.pairs
}

// parseState is the document-global pairing machine. pending carries an
// armed rule name between entries; pendingEntry records which entry armed
// it.
type parseState struct {
	pending      string
	pendingEntry int
	entry        int
	pairs        []parsedPattern
}

// feedEntry runs the fields of one pattern mapping through the machine in
// document order. description and keywords are collected up front so they
// can be attached when this entry's regex emits a pair; they are dropped
// when the emitting name came from an earlier entry, since metadata must not
// decorate a mispaired rule.
func (s *parseState) feedEntry(m *yaml.Node) {
	s.entry++
	desc := ""
	var keywords []string
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], m.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			continue
		}
		switch k.Value {
		case "description":
			if v.Kind == yaml.ScalarNode {
				desc = v.Value
			}
		case "keywords":
			if v.Kind == yaml.SequenceNode {
				for _, item := range v.Content {
					if item.Kind == yaml.ScalarNode && item.Value != "" {
						keywords = append(keywords, item.Value)
					}
				}
			}
		}
	}

	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], m.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			continue
		}
		switch k.Value {
		case "name":
			if v.Value != "" {
				s.pending = v.Value
				s.pendingEntry = s.entry
			}
		case "regex":
			if s.pending == "" {
				continue
			}
			p := parsedPattern{Name: s.pending, Regex: v.Value}
			if s.pendingEntry == s.entry {
				p.Description = desc
				p.Keywords = keywords
			}
			s.pairs = append(s.pairs, p)
			s.pending = ""
		}
	}
}

// documentRoot unwraps the document node yaml.Unmarshal produces.
func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return nil
}

// mappingValue returns the value node for key, or nil when the mapping has
// no such key.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		k := m.Content[i]
		if k.Kind == yaml.ScalarNode && k.Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

var yamlErrLine = regexp.MustCompile(`yaml: line (\d+):`)

// salvagePrefix recovers the entries above a structural YAML error by
// re-parsing the document cut just above the reported error line. Each
// failed retry must report a strictly earlier line or the salvage gives
// up, so an error the cut does not clear cannot loop. Errors that carry
// no line number are not salvageable.
func salvagePrefix(data []byte, err error) *yaml.Node {
	lines := bytes.SplitAfter(data, []byte("\n"))
	cut := len(lines) + 1
	for {
		m := yamlErrLine.FindStringSubmatch(err.Error())
		if m == nil {
			return nil
		}
		line, _ := strconv.Atoi(m[1])
		if line <= 1 || line >= cut {
			return nil
		}
		cut = line
		doc := new(yaml.Node)
		if err = yaml.Unmarshal(bytes.Join(lines[:cut-1], nil), doc); err == nil {
			return doc
		}
	}
}
