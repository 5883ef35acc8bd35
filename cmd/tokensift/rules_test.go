package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetRulesFlags() {
	rulesListDir = ""
	rulesListBuiltin = false
	rulesListFormat = "table"
	cfgFile = ""
	verbose = false
	quiet = false
}

func TestRunRulesList(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	resetRulesFlags()
	rulesListDir = writeCmdRules(t)

	err := runRulesList(cmd, []string{})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Name")
	assert.Contains(t, output, "File")
	assert.Contains(t, output, "email-address")
	assert.Contains(t, output, "order-number")
}

func TestRunRulesListJSON(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	resetRulesFlags()
	rulesListDir = writeCmdRules(t)
	rulesListFormat = "json"

	err := runRulesList(cmd, []string{})
	require.NoError(t, err)

	var listings []ruleListing
	require.NoError(t, json.Unmarshal(buf.Bytes(), &listings))
	require.Len(t, listings, 2)
	assert.Equal(t, "email-address", listings[0].Name)
	assert.NotEmpty(t, listings[0].Origin)
}

func TestRunRulesListBuiltin(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	resetRulesFlags()
	rulesListBuiltin = true

	err := runRulesList(cmd, []string{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "aws-access-key-id")
}

func TestRunRulesListUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	resetRulesFlags()
	rulesListDir = writeCmdRules(t)
	rulesListFormat = "xml"

	err := runRulesList(cmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}
