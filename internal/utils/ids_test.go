package utils

import (
	"errors"
	"testing"
)

func TestParseID(t *testing.T) {
	cases := []struct {
		s    string
		want uint
		err  bool
	}{
		{"42", 42, false},
		{" 7 ", 7, false},
		{"0012", 12, false},
		{"", 0, true},
		{"0", 0, true},
		{"-3", 0, true},
		{"x", 0, true},
		{"1.5", 0, true},
		{"999999999999999999999999", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseID(tc.s)
		if tc.err {
			if !errors.Is(err, ErrBadID) {
				t.Fatalf("ParseID(%q) err = %v; want ErrBadID", tc.s, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseID(%q) = %d, %v; want %d", tc.s, got, err, tc.want)
		}
	}
}
