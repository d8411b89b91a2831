package quotes

import (
	"fmt"
	"time"

	"github.com/maxwell-lv/mootdx/models"
)

// fakeTransport tracks connection state the way the real wire client does:
// closed until the first Connect, closed again after Close.
type fakeTransport struct {
	connected  bool
	connects   int
	closes     int
	connectErr error
	lastAddr   string
	lastPort   int
}

func (f *fakeTransport) Connect(addr string, port int, timeout time.Duration) error {
	f.connects++
	f.lastAddr = addr
	f.lastPort = port
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeTransport) IsClosed() bool { return !f.connected }

func (f *fakeTransport) Close() error {
	f.closes++
	f.connected = false
	return nil
}

func rows(n int, extra ...interface{}) []models.Record {
	out := make([]models.Record, n)
	for i := range out {
		r := models.Record{{Name: "seq", Value: i}}
		for j := 0; j+1 < len(extra); j += 2 {
			r = r.With(extra[j].(string), extra[j+1])
		}
		out[i] = r
	}
	return out
}

// fakeStdClient cans one response per operation and logs each remote call.
type fakeStdClient struct {
	fakeTransport

	calls []string

	quotes       []models.Record
	bars         []models.Record
	barsErr      error
	barsByStart  map[int][]models.Record
	count        int
	countByMkt   map[MarketCode]int
	listPageSize int
	minutes      []models.Record
	transactions []models.Record
	category     []models.Record
	content      map[string]string
	xdxr         []models.Record
	finance      []models.Record
	block        []models.Record
}

func (f *fakeStdClient) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeStdClient) SecurityQuotes(symbols []MarketSymbol) ([]models.Record, error) {
	f.record("quotes/%d", len(symbols))
	return f.quotes, nil
}

func (f *fakeStdClient) SecurityBars(frequency Frequency, market MarketCode, symbol string, start, count int) ([]models.Record, error) {
	f.record("bars/%d/%d/%s/%d/%d", frequency, market, symbol, start, count)
	if f.barsErr != nil {
		return nil, f.barsErr
	}
	if f.barsByStart != nil {
		return f.barsByStart[start], nil
	}
	return f.bars, nil
}

func (f *fakeStdClient) SecurityCount(market MarketCode) (int, error) {
	f.record("count/%d", market)
	if f.countByMkt != nil {
		return f.countByMkt[market], nil
	}
	return f.count, nil
}

func (f *fakeStdClient) SecurityList(market MarketCode, start int) ([]models.Record, error) {
	f.record("list/%d/%d", market, start)
	total := f.count
	if f.countByMkt != nil {
		total = f.countByMkt[market]
	}
	size := f.listPageSize
	if size == 0 {
		size = 1000
	}
	n := total - start
	if n > size {
		n = size
	}
	if n < 0 {
		n = 0
	}
	return rows(n, "market", int(market)), nil
}

func (f *fakeStdClient) IndexBars(frequency Frequency, market MarketCode, symbol string, start, count int) ([]models.Record, error) {
	f.record("indexbars/%d/%d/%s/%d/%d", frequency, market, symbol, start, count)
	return f.bars, nil
}

func (f *fakeStdClient) MinuteTimeData(market MarketCode, symbol string) ([]models.Record, error) {
	f.record("minute/%d/%s", market, symbol)
	return f.minutes, nil
}

func (f *fakeStdClient) HistoryMinuteTimeData(market MarketCode, symbol, date string) ([]models.Record, error) {
	f.record("histminute/%d/%s/%s", market, symbol, date)
	return f.minutes, nil
}

func (f *fakeStdClient) TransactionData(market MarketCode, symbol string, start, count int) ([]models.Record, error) {
	f.record("trans/%d/%s/%d/%d", market, symbol, start, count)
	return f.transactions, nil
}

func (f *fakeStdClient) HistoryTransactionData(market MarketCode, symbol string, start, count, date int) ([]models.Record, error) {
	f.record("histtrans/%d/%s/%d/%d/%d", market, symbol, start, count, date)
	return f.transactions, nil
}

func (f *fakeStdClient) CompanyInfoCategory(market MarketCode, symbol string) ([]models.Record, error) {
	f.record("category/%d/%s", market, symbol)
	return f.category, nil
}

func (f *fakeStdClient) CompanyInfoContent(market MarketCode, symbol, filename string, start, length int) (string, error) {
	f.record("content/%s/%d/%d", filename, start, length)
	return f.content[filename], nil
}

func (f *fakeStdClient) XdxrInfo(market MarketCode, symbol string) ([]models.Record, error) {
	f.record("xdxr/%d/%s", market, symbol)
	return f.xdxr, nil
}

func (f *fakeStdClient) FinanceInfo(market MarketCode, symbol string) ([]models.Record, error) {
	f.record("finance/%d/%s", market, symbol)
	return f.finance, nil
}

func (f *fakeStdClient) BlockInfo(tofile string) ([]models.Record, error) {
	f.record("block/%s", tofile)
	return f.block, nil
}

// fakeExtClient cans responses for the extended wire client. Per-call
// scripted responses let retry behaviour be exercised.
type fakeExtClient struct {
	fakeTransport

	calls []string

	markets     []models.Record
	count       int
	quote       []models.Record
	barsScript  [][]models.Record
	barsCalls   int
	minutes     []models.Record
	transaction []models.Record
}

func (f *fakeExtClient) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeExtClient) Markets() ([]models.Record, error) {
	f.record("markets")
	return f.markets, nil
}

func (f *fakeExtClient) InstrumentCount() (int, error) {
	f.record("count")
	return f.count, nil
}

func (f *fakeExtClient) InstrumentInfo(start, count int) ([]models.Record, error) {
	f.record("info/%d/%d", start, count)
	n := f.count - start
	if n > count {
		n = count
	}
	if n < 0 {
		n = 0
	}
	return rows(n), nil
}

func (f *fakeExtClient) InstrumentQuote(market int, symbol string) ([]models.Record, error) {
	f.record("quote/%d/%s", market, symbol)
	return f.quote, nil
}

func (f *fakeExtClient) InstrumentBars(frequency Frequency, market int, symbol string, start, count int) ([]models.Record, error) {
	f.record("bars/%d/%d/%s/%d/%d", frequency, market, symbol, start, count)
	if f.barsScript != nil {
		i := f.barsCalls
		f.barsCalls++
		if i >= len(f.barsScript) {
			i = len(f.barsScript) - 1
		}
		return f.barsScript[i], nil
	}
	return nil, nil
}

func (f *fakeExtClient) MinuteTimeData(market int, symbol string) ([]models.Record, error) {
	f.record("minute/%d/%s", market, symbol)
	return f.minutes, nil
}

func (f *fakeExtClient) HistoryMinuteTimeData(market int, symbol, date string) ([]models.Record, error) {
	f.record("histminute/%d/%s/%s", market, symbol, date)
	return f.minutes, nil
}

func (f *fakeExtClient) TransactionData(market int, symbol string, start, count int) ([]models.Record, error) {
	f.record("trans/%d/%s/%d/%d", market, symbol, start, count)
	return f.transaction, nil
}

func (f *fakeExtClient) HistoryTransactionData(market int, symbol string, date, start, count int) ([]models.Record, error) {
	f.record("histtrans/%d/%s/%d/%d/%d", market, symbol, date, start, count)
	return f.transaction, nil
}

// quiet disables the random backoff so retry tests run instantly.
func quiet(p *RetryPolicy) {
	p.sleep = func(time.Duration) {}
	p.randf = func() float64 { return 0 }
}
