package core

import "testing"

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"50.50", 5050, true},
		{"50,50", 5050, true},
		{"0.01", 1, true},
		{" 2.50 ", 250, true},
		{"35", 3500, true},
		{"12.345", 0, false}, // more than 2 decimals
		{"12.", 0, false},    // trailing separator
		{"12,", 0, false},
		{".", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"0", 0, false},
		{"0.00", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.cents {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.cents, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		out   string
	}{
		{3500, "35.00"},
		{5050, "50.50"},
		{1, "0.01"},
		{120, "1.20"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.out {
			t.Fatalf("cents=%d expected %q, got %q", tc.cents, tc.out, got)
		}
	}
}
