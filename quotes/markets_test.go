package quotes

import (
	"testing"

	"github.com/maxwell-lv/mootdx/models"
)

func TestDeriveMarket(t *testing.T) {
	cases := []struct {
		symbol  string
		market  MarketCode
		code    string
		wantErr bool
	}{
		{symbol: "600000", market: MarketSH, code: "600000"},
		{symbol: "688001", market: MarketSH, code: "688001"},
		{symbol: "510050", market: MarketSH, code: "510050"},
		{symbol: "110038", market: MarketSH, code: "110038"},
		{symbol: "000001", market: MarketSZ, code: "000001"},
		{symbol: "300750", market: MarketSZ, code: "300750"},
		{symbol: "128021", market: MarketSZ, code: "128021"},
		{symbol: "sh600000", market: MarketSH, code: "600000"},
		{symbol: "sz000001", market: MarketSZ, code: "000001"},
		{symbol: "SH600000", market: MarketSH, code: "600000"},
		{symbol: "abc123", wantErr: true},
		{symbol: "", wantErr: true},
	}

	for _, tc := range cases {
		market, code, err := DeriveMarket(tc.symbol)
		if tc.wantErr {
			if err == nil {
				t.Errorf("DeriveMarket(%q): expected error, got %d/%q", tc.symbol, market, code)
			} else if !models.IsValidation(err) {
				t.Errorf("DeriveMarket(%q): expected validation error, got %v", tc.symbol, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("DeriveMarket(%q): %v", tc.symbol, err)
			continue
		}
		if market != tc.market || code != tc.code {
			t.Errorf("DeriveMarket(%q) = %d/%q, want %d/%q", tc.symbol, market, code, tc.market, tc.code)
		}
	}
}

func TestDeriveIndexMarket(t *testing.T) {
	cases := map[string]MarketCode{
		"000001": MarketSH,
		"880005": MarketSH,
		"999999": MarketSH,
		"399001": MarketSZ,
		"":       MarketSZ,
	}
	for symbol, want := range cases {
		if got := DeriveIndexMarket(symbol); got != want {
			t.Errorf("DeriveIndexMarket(%q) = %d, want %d", symbol, got, want)
		}
	}
}

func TestClampOffset(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 800: 800, 801: 800, 5000: 800, -3: -3}
	for in, want := range cases {
		if got := clampOffset(in); got != want {
			t.Errorf("clampOffset(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestParseFrequency(t *testing.T) {
	cases := map[string]Frequency{
		"day":   FreqDaily,
		"DAY":   FreqDaily,
		"5min":  Freq5Min,
		"hour":  FreqHour,
		"1hour": FreqHour,
		"year":  FreqYear,
	}
	for name, want := range cases {
		got, err := ParseFrequency(name)
		if err != nil {
			t.Fatalf("ParseFrequency(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("ParseFrequency(%q) = %d, want %d", name, got, want)
		}
	}

	if _, err := ParseFrequency("fortnight"); !models.IsValidation(err) {
		t.Errorf("expected validation error for unknown frequency, got %v", err)
	}
}

func TestMarketSymbolsFailsFast(t *testing.T) {
	pairs, err := MarketSymbols([]string{"600000", "nonsense", "000001"})
	if err == nil {
		t.Fatalf("expected error, got %v", pairs)
	}
	if !models.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
