package scanner

import "testing"

func TestNormalizeToken(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"canonical", " a  b  ", "a b"},
		{"leading stripped", "\t\t  token", "token"},
		{"single trailing dropped", "token ", "token"},
		{"run keeps first char", "a\t  b", "a\tb"},
		{"interior space run", "one   two   three", "one two three"},
		{"already clean", "clean", "clean"},
		{"empty", "", ""},
		{"whitespace only", " \t \r ", ""},
		{"carriage return", "line\r", "line"},
		{"vertical and form feed", "a\v\fb", "a\vb"},
		{"single char", "x", "x"},
		{"single space", " ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeToken(tc.in); got != tc.want {
				t.Errorf("NormalizeToken(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
