package quotes

import (
	"strings"

	"github.com/maxwell-lv/mootdx/models"
)

// MarketCode identifies a standard market segment.
type MarketCode int

const (
	MarketSZ MarketCode = 0 // Shenzhen
	MarketSH MarketCode = 1 // Shanghai
	MarketBJ MarketCode = 2 // Beijing, accepted for counting only
)

// maxOffset is the server's maximum page size. Larger requests are clamped,
// never rejected.
const maxOffset = 800

// clampOffset caps a requested page size at the server maximum.
func clampOffset(offset int) int {
	if offset > maxOffset {
		return maxOffset
	}
	return offset
}

// Symbol prefixes per market. Longest prefixes are listed first so e.g.
// "110" (SH convertible bonds) wins over "1".
var shPrefixes = []string{"110", "113", "118", "132", "204", "50", "51", "58", "60", "68", "90"}
var szPrefixes = []string{"115", "128", "00", "12", "13", "15", "16", "18", "20", "30", "39"}

// DeriveMarket resolves the market code for a stock symbol from its prefix.
// A leading "sh"/"sz" tag is honoured and stripped. Symbols that resolve to
// neither market fail validation instead of defaulting.
func DeriveMarket(symbol string) (MarketCode, string, error) {
	if symbol == "" {
		return 0, "", models.Validationf("symbol must not be empty")
	}

	lower := strings.ToLower(symbol)
	if strings.HasPrefix(lower, "sh") {
		return MarketSH, symbol[2:], nil
	}
	if strings.HasPrefix(lower, "sz") {
		return MarketSZ, symbol[2:], nil
	}

	for _, p := range shPrefixes {
		if strings.HasPrefix(symbol, p) {
			return MarketSH, symbol, nil
		}
	}
	for _, p := range szPrefixes {
		if strings.HasPrefix(symbol, p) {
			return MarketSZ, symbol, nil
		}
	}

	return 0, "", models.Validationf("cannot derive market for symbol %q", symbol)
}

// DeriveIndexMarket resolves the market code for an index symbol. Index
// numbering differs from stocks: 000xxx/88xxxx/99xxxx live on Shanghai,
// everything else on Shenzhen.
func DeriveIndexMarket(symbol string) MarketCode {
	if len(symbol) >= 2 {
		switch symbol[:2] {
		case "00", "88", "99":
			return MarketSH
		}
	}
	return MarketSZ
}

// MarketSymbols resolves a batch of symbols into (market, symbol) pairs,
// failing on the first symbol with no derivable market.
func MarketSymbols(symbols []string) ([]MarketSymbol, error) {
	out := make([]MarketSymbol, 0, len(symbols))
	for _, s := range symbols {
		market, code, err := DeriveMarket(s)
		if err != nil {
			return nil, err
		}
		out = append(out, MarketSymbol{Market: market, Symbol: code})
	}
	return out, nil
}

// Frequency selects a K-line granularity.
type Frequency int

const (
	Freq5Min    Frequency = 0
	Freq15Min   Frequency = 1
	Freq30Min   Frequency = 2
	FreqHour    Frequency = 3
	FreqDay     Frequency = 4
	FreqWeek    Frequency = 5
	FreqMonth   Frequency = 6
	FreqExt1Min Frequency = 7
	Freq1Min    Frequency = 8
	FreqDaily   Frequency = 9 // daily bars as served by the bars API
	FreqQuarter Frequency = 10
	FreqYear    Frequency = 11
)

var frequencyNames = map[string]Frequency{
	"5min":    Freq5Min,
	"15min":   Freq15Min,
	"30min":   Freq30Min,
	"1hour":   FreqHour,
	"hour":    FreqHour,
	"week":    FreqWeek,
	"month":   FreqMonth,
	"mon":     FreqMonth,
	"1min":    Freq1Min,
	"day":     FreqDaily,
	"quarter": FreqQuarter,
	"3mon":    FreqQuarter,
	"year":    FreqYear,
}

// ParseFrequency maps a granularity name onto its protocol code.
func ParseFrequency(name string) (Frequency, error) {
	f, ok := frequencyNames[strings.ToLower(name)]
	if !ok {
		return 0, models.Validationf("unknown frequency %q", name)
	}
	return f, nil
}

// ValidFrequency reports whether f is inside the protocol enumeration.
func ValidFrequency(f Frequency) bool {
	return f >= Freq5Min && f <= FreqYear
}
