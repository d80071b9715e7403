package core

import "testing"

func TestParseMinorUnits(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"500", 500, true},
		{"1", 1, true},
		{" 250 ", 250, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"12.5", 0, false},
		{"12,5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"   ", 0, false},
		{"null", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMinorUnits(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}
