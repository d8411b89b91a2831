package models

import "strconv"

// Bar is a typed daily K-line row extracted from a table, used by the
// storage and writer layers. The facade itself deals in tables only.
type Bar struct {
	Symbol string
	Date   string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Amount float64
}

// BarsFromTable extracts typed bars from a kline table. The date comes from
// the derived "date" column when present, otherwise from "datetime". Rows
// with no recognizable date are skipped.
func BarsFromTable(t *Table) []Bar {
	if t.Empty() {
		return nil
	}
	out := make([]Bar, 0, t.Len())
	for _, r := range t.Rows() {
		date := r.String("date")
		if date == "" {
			if dt := r.String("datetime"); len(dt) >= 10 {
				date = dt[:10]
			}
		}
		if date == "" {
			continue
		}
		symbol := r.String("code")
		if symbol == "" {
			symbol = t.Symbol
		}
		out = append(out, Bar{
			Symbol: symbol,
			Date:   date,
			Open:   fieldFloat(r, "open"),
			High:   fieldFloat(r, "high"),
			Low:    fieldFloat(r, "low"),
			Close:  fieldFloat(r, "close"),
			Volume: fieldFloat(r, "vol"),
			Amount: fieldFloat(r, "amount"),
		})
	}
	return out
}

// fieldFloat renders a record field as float64, coercing the numeric types
// the protocol layer is known to produce.
func fieldFloat(r Record, name string) float64 {
	v, ok := r.Get(name)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
