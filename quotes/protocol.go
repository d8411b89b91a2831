// Package quotes exposes the standard and extended market quote facades on
// top of a low-level TDX protocol client. The wire protocol itself lives
// behind the ProtocolClient interfaces; this package owns connection
// liveness, retries and the tabular adaptation of raw record batches.
package quotes

import (
	"time"

	"github.com/maxwell-lv/mootdx/models"
)

// Transport is the capability a protocol client must expose so the session
// layer can manage its lifetime. Liveness is decided at compile time through
// this interface rather than probed reflectively per call.
type Transport interface {
	Connect(addr string, port int, timeout time.Duration) error
	IsClosed() bool
	Close() error
}

// MarketSymbol pairs a resolved market code with a bare symbol.
type MarketSymbol struct {
	Market MarketCode
	Symbol string
}

// ProtocolClient is the standard (HQ) market wire client. One method per
// remote operation; each call performs a single logical round-trip and
// returns raw records in server order, or an error. Implementations live
// outside this module.
type ProtocolClient interface {
	Transport

	SecurityQuotes(symbols []MarketSymbol) ([]models.Record, error)
	SecurityBars(frequency Frequency, market MarketCode, symbol string, start, count int) ([]models.Record, error)
	SecurityCount(market MarketCode) (int, error)
	SecurityList(market MarketCode, start int) ([]models.Record, error)
	IndexBars(frequency Frequency, market MarketCode, symbol string, start, count int) ([]models.Record, error)
	MinuteTimeData(market MarketCode, symbol string) ([]models.Record, error)
	HistoryMinuteTimeData(market MarketCode, symbol string, date string) ([]models.Record, error)
	TransactionData(market MarketCode, symbol string, start, count int) ([]models.Record, error)
	HistoryTransactionData(market MarketCode, symbol string, start, count, date int) ([]models.Record, error)
	CompanyInfoCategory(market MarketCode, symbol string) ([]models.Record, error)
	CompanyInfoContent(market MarketCode, symbol, filename string, start, length int) (string, error)
	XdxrInfo(market MarketCode, symbol string) ([]models.Record, error)
	FinanceInfo(market MarketCode, symbol string) ([]models.Record, error)
	BlockInfo(tofile string) ([]models.Record, error)
}

// ExtProtocolClient is the extended/futures (EX) market wire client.
type ExtProtocolClient interface {
	Transport

	Markets() ([]models.Record, error)
	InstrumentCount() (int, error)
	InstrumentInfo(start, count int) ([]models.Record, error)
	InstrumentQuote(market int, symbol string) ([]models.Record, error)
	InstrumentBars(frequency Frequency, market int, symbol string, start, count int) ([]models.Record, error)
	MinuteTimeData(market int, symbol string) ([]models.Record, error)
	HistoryMinuteTimeData(market int, symbol string, date string) ([]models.Record, error)
	TransactionData(market int, symbol string, start, count int) ([]models.Record, error)
	HistoryTransactionData(market int, symbol string, date, start, count int) ([]models.Record, error)
}

// QuoteSource is the session-lifecycle surface shared by both facades. The
// retry-wrapping asymmetry between the two implementations is a per-facade
// policy choice, not part of this contract.
type QuoteSource interface {
	Alive() bool
	Close() error
}

var (
	_ QuoteSource = (*StdQuotes)(nil)
	_ QuoteSource = (*ExtQuotes)(nil)
)
