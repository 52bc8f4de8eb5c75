package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Money
	}{
		{`1000`, 100000},
		{`1000.5`, 100050},
		{`"56.25"`, 5625},
		{`0.005`, 1},
		{`-0.005`, -1},
		{`0.004`, 0},
		{`null`, 0},
	}
	for _, tt := range tests {
		var m Money
		if err := json.Unmarshal([]byte(tt.in), &m); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		if m != tt.want {
			t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, m, tt.want)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`"ten"`), &m); err == nil {
		t.Error("expected error for non-numeric string")
	}

	b, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{627200})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"total":6272.00}` {
		t.Errorf("Marshal = %s", b)
	}
}

func TestMoneyMul(t *testing.T) {
	tests := []struct {
		m      Money
		factor string
		want   Money
	}{
		{10000, "56", 560000},
		{560000, "0.12", 67200},
		{333, "0.5", 167},
		{-333, "0.5", -167},
	}
	for _, tt := range tests {
		if got := tt.m.Mul(decimal.RequireFromString(tt.factor)); got != tt.want {
			t.Errorf("%s * %s = %s, want %s", tt.m, tt.factor, got, tt.want)
		}
	}
}

func TestMoneyFromDecimal(t *testing.T) {
	if got := MoneyFromDecimal(decimal.RequireFromString("12.345")); got != 1235 {
		t.Errorf("MoneyFromDecimal(12.345) = %d, want 1235", got)
	}
	if got := Money(-5).String(); got != "-0.05" {
		t.Errorf("String() = %s, want -0.05", got)
	}
}
