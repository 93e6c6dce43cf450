package osc

import (
	"errors"
	"testing"
)

func TestGlobMatch(t *testing.T) {
	tests := []struct {
		pattern string
		text    string
		want    bool
	}{
		{"abc", "abc", true},
		{"abc", "abd", false},
		{"abc", "ab", false},
		{"", "", true},
		{"", "a", false},
		{"a?c", "abc", true},
		{"?", "", false},
		{"*", "", true},
		{"*", "anything", true},
		{"a*", "a", true},
		{"a*c", "abbbc", true},
		{"a*c", "abbbd", false},
		{"*c*", "abcd", true},
		{"**", "x", true},
		{"[abc]", "b", true},
		{"[abc]", "d", false},
		{"[a-c]x", "bx", true},
		{"[c-a]", "b", true},
		{"[!a-c]", "d", true},
		{"[!a-c]", "b", false},
		{"[0-2]", "3", false},
		{"[a-]", "-", true},
		{"[abc", "a", false},
		{"{foo,bar}", "foo", true},
		{"{foo,bar}", "bar", true},
		{"{foo,bar}", "baz", false},
		{"{foo,bar}x", "barx", true},
		{"{foo,bar", "foo", false},
		{"{,a}b", "b", true},
		{`\*`, "*", true},
		{`\*`, "a", false},
		{`a\`, "a", true},
		{`a\`, "ab", false},
		{`\`, "", true},
		{"st*te", "state", true},
	}
	for _, tt := range tests {
		if got := GlobMatch(tt.pattern, tt.text); got != tt.want {
			t.Errorf("GlobMatch(%q, %q) = %v, want %v", tt.pattern, tt.text, got, tt.want)
		}
	}
}

func TestNumberMatch(t *testing.T) {
	tests := []struct {
		name    string
		elem    string
		offset  int
		count   int
		want    []int
		wantErr bool
	}{
		{"single", "3", 0, 8, []int{3}, false},
		{"single_offset", "5", 4, 4, []int{1}, false},
		{"below_offset", "3", 4, 4, nil, true},
		{"too_high", "8", 0, 8, nil, true},
		{"star", "*", 0, 4, []int{0, 1, 2, 3}, false},
		{"set", "[0-2]", 0, 8, []int{0, 1, 2}, false},
		{"alternation", "{1,6}", 0, 8, []int{1, 6}, false},
		{"question", "1?", 0, 16, []int{10, 11, 12, 13, 14, 15}, false},
		{"offset_pattern", "[12]", 1, 2, []int{0, 1}, false},
		{"no_selection", "[7-9]", 0, 4, nil, true},
		{"word", "foo", 0, 8, nil, true},
		{"empty", "", 0, 8, nil, true},
		{"bad_count", "1", 0, 65, nil, true},
		{"full_width", "63", 0, 64, []int{63}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NumberMatch(tt.elem, tt.offset, tt.count)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NumberMatch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrIllegalIndex) {
					t.Errorf("NumberMatch() error = %v, want %v", err, ErrIllegalIndex)
				}
				return
			}
			if r.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", r.Len(), len(tt.want))
			}
			var got []int
			for r.HasNext() {
				got = append(got, r.Next())
			}
			if len(got) != len(tt.want) {
				t.Fatalf("NumberMatch() got = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("NumberMatch() got = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestRange_Contains(t *testing.T) {
	r := SingleIndex(5)
	if !r.Contains(5) || r.Contains(4) || r.Contains(-1) || r.Contains(64) {
		t.Errorf("Contains() wrong for mask %b", r.Mask())
	}
}
