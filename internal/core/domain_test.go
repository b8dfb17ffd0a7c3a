package core

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	cases := []struct{ in, out string }{
		{"Cartão", "cartao"},
		{"  PIX  ", "pix"},
		{"educação", "educacao"},
		{"saúde", "saude"},
		{"dinheiro", "dinheiro"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.out {
			t.Fatalf("Normalize(%q) = %q, expected %q", tc.in, got, tc.out)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	now := time.Now()
	good := Expense{
		Timestamp: now,
		Method:    "pix",
		Category:  "comida",
		Amount:    Money{Cents: 3500},
		Note:      "almoço",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Method: "pix", Category: "comida", Amount: Money{Cents: 1}}, // zero timestamp
		{Timestamp: now, Category: "comida", Amount: Money{Cents: 1}},
		{Timestamp: now, Method: "pix", Amount: Money{Cents: 1}},
		{Timestamp: now, Method: "pix", Category: "comida", Amount: Money{Cents: 0}},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
