package quotes

import (
	"strconv"
	"time"

	"github.com/maxwell-lv/mootdx/logger"
	"github.com/maxwell-lv/mootdx/models"
	"github.com/maxwell-lv/mootdx/server"
)

// Options configure facade construction. The zero value connects to the
// head of the segment's default server pool with the default timeout.
type Options struct {
	// Server overrides endpoint resolution entirely.
	Server *server.Endpoint
	// BestIP prefers the directory's previously benchmarked endpoint.
	BestIP bool
	// Timeout is the connect timeout in effect for the session (default 15s).
	Timeout time.Duration
	// Directory supplies candidate endpoints; a fresh one is built when nil.
	Directory *server.Directory
}

func (o Options) directory() *server.Directory {
	if o.Directory != nil {
		return o.Directory
	}
	return server.NewDirectory()
}

// StdQuotes is the standard (stock) market facade. Calls are not wrapped in
// the retry policy: remote errors propagate to the caller.
type StdQuotes struct {
	session *Session
	client  ProtocolClient
	log     *logger.Entry

	// now is a hook for the date-range resolver tests.
	now func() time.Time
}

// NewStd resolves an HQ endpoint and connects immediately. A connection
// failure at construction time propagates: a standard facade either starts
// connected or not at all.
func NewStd(client ProtocolClient, opts Options) (*StdQuotes, error) {
	endpoint, err := opts.directory().Resolve(server.SegmentHQ, opts.Server, opts.BestIP)
	if err != nil {
		return nil, err
	}

	q := &StdQuotes{
		session: NewSession(client, endpoint, opts.Timeout),
		client:  client,
		log:     logger.GetLogger().WithComponent("std_quotes"),
		now:     time.Now,
	}
	if err := q.session.Connect(); err != nil {
		return nil, err
	}
	return q, nil
}

// Alive reports session liveness.
func (q *StdQuotes) Alive() bool {
	return q.session.Alive()
}

// Close releases the session transport.
func (q *StdQuotes) Close() error {
	return q.session.Close()
}

// call runs one remote round-trip behind the liveness precondition and
// adapts the raw records into a table.
func (q *StdQuotes) call(op string, fn func() ([]models.Record, error), opts ...models.TableOption) (*models.Table, error) {
	if err := q.session.EnsureConnected(); err != nil {
		return nil, err
	}
	records, err := fn()
	if err != nil {
		return nil, models.Transient(op, err)
	}
	t := models.NewTable(records, opts...)
	logger.AddRowsFetched(t.Len())
	return t, nil
}

// Quotes fetches real-time quotes for one or more symbols. An empty symbol
// list yields an empty table without touching the server; a validation
// failure (local or remote) degrades to an empty table as well.
func (q *StdQuotes) Quotes(symbols ...string) (*models.Table, error) {
	if len(symbols) == 0 {
		return models.NewTable(nil), nil
	}

	pairs, err := MarketSymbols(symbols)
	if err != nil {
		q.log.WithError(err).Debug("symbol validation failed")
		return models.NewTable(nil), nil
	}

	t, err := q.call("security_quotes", func() ([]models.Record, error) {
		return q.client.SecurityQuotes(pairs)
	})
	if err != nil && models.IsValidation(err) {
		return models.NewTable(nil), nil
	}
	return t, err
}

// Bars fetches K-line bars for a stock symbol. Offsets beyond the server
// page size are clamped to 800.
func (q *StdQuotes) Bars(symbol string, frequency Frequency, start, offset int) (*models.Table, error) {
	if !ValidFrequency(frequency) {
		return nil, models.Validationf("invalid frequency %d", frequency)
	}
	market, code, err := DeriveMarket(symbol)
	if err != nil {
		return nil, err
	}
	offset = clampOffset(offset)

	return q.call("security_bars", func() ([]models.Record, error) {
		return q.client.SecurityBars(frequency, market, code, start, offset)
	}, models.WithSymbol(code), models.WithMarket(int(market)))
}

// StockCount returns the number of listed securities on a market. Beijing
// is accepted here even though the listing operations below do not support
// it.
func (q *StdQuotes) StockCount(market MarketCode) (int, error) {
	switch market {
	case MarketSZ, MarketSH, MarketBJ:
	default:
		return 0, models.Validationf("invalid market code %d", market)
	}
	if err := q.session.EnsureConnected(); err != nil {
		return 0, err
	}
	count, err := q.client.SecurityCount(market)
	if err != nil {
		return 0, models.Transient("security_count", err)
	}
	return count, nil
}

// Stocks lists every security on a market, paging through the directory in
// pages of 1000 and concatenating in server order.
func (q *StdQuotes) Stocks(market MarketCode) (*models.Table, error) {
	if market != MarketSZ && market != MarketSH {
		return nil, models.Validationf("invalid market code %d, only SH/SZ are listable", market)
	}

	count, err := q.StockCount(market)
	if err != nil {
		return nil, err
	}

	pages := make([]*models.Table, 0, count/1000+1)
	for start := 0; start < count; start += 1000 {
		page, err := q.call("security_list", func() ([]models.Record, error) {
			return q.client.SecurityList(market, start)
		}, models.WithMarket(int(market)))
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
		q.log.WithFields(logger.Fields{"market": int(market), "start": start, "total": count}).Debug("fetched security list page")
	}
	return models.Concat(pages...), nil
}

// StockAll lists both markets, Shanghai first.
func (q *StdQuotes) StockAll() (*models.Table, error) {
	tables := make([]*models.Table, 0, 2)
	for _, market := range []MarketCode{MarketSH, MarketSZ} {
		t, err := q.Stocks(market)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return models.Concat(tables...), nil
}

// IndexBars fetches K-line bars for an index symbol.
func (q *StdQuotes) IndexBars(symbol string, frequency Frequency, start, offset int) (*models.Table, error) {
	if !ValidFrequency(frequency) {
		return nil, models.Validationf("invalid frequency %d", frequency)
	}
	market := DeriveIndexMarket(symbol)
	offset = clampOffset(offset)

	return q.call("index_bars", func() ([]models.Record, error) {
		return q.client.IndexBars(frequency, market, symbol, start, offset)
	}, models.WithSymbol(symbol), models.WithMarket(int(market)))
}

// Minute fetches today's minute-by-minute data.
func (q *StdQuotes) Minute(symbol string) (*models.Table, error) {
	market, code, err := DeriveMarket(symbol)
	if err != nil {
		return nil, err
	}

	return q.call("minute", func() ([]models.Record, error) {
		return q.client.MinuteTimeData(market, code)
	}, models.WithSymbol(code), models.WithMarket(int(market)))
}

// Minutes fetches historical minute-by-minute data for a trading day.
func (q *StdQuotes) Minutes(symbol, date string) (*models.Table, error) {
	market, code, err := DeriveMarket(symbol)
	if err != nil {
		return nil, err
	}

	return q.call("history_minute", func() ([]models.Record, error) {
		return q.client.HistoryMinuteTimeData(market, code, date)
	}, models.WithSymbol(code), models.WithMarket(int(market)))
}

// Transaction fetches today's tick transactions.
func (q *StdQuotes) Transaction(symbol string, start, offset int) (*models.Table, error) {
	market, code, err := DeriveMarket(symbol)
	if err != nil {
		return nil, err
	}
	offset = clampOffset(offset)

	return q.call("transaction", func() ([]models.Record, error) {
		return q.client.TransactionData(market, code, start, offset)
	}, models.WithSymbol(code), models.WithMarket(int(market)))
}

// Transactions fetches historical tick transactions for a trading day given
// as YYYYMMDD.
func (q *StdQuotes) Transactions(symbol string, start, offset int, date string) (*models.Table, error) {
	market, code, err := DeriveMarket(symbol)
	if err != nil {
		return nil, err
	}
	day, err := strconv.Atoi(date)
	if err != nil {
		return nil, models.Validationf("invalid date %q, expected YYYYMMDD", date)
	}
	offset = clampOffset(offset)

	return q.call("history_transaction", func() ([]models.Record, error) {
		return q.client.HistoryTransactionData(market, code, start, offset, day)
	}, models.WithSymbol(code), models.WithMarket(int(market)))
}

// CompanyInfoCategory fetches the directory of company info sections. Each
// row names a section and carries the (filename, start, length) descriptor
// needed to read its content.
func (q *StdQuotes) CompanyInfoCategory(symbol string) (*models.Table, error) {
	market, code, err := DeriveMarket(symbol)
	if err != nil {
		return nil, err
	}

	return q.call("company_category", func() ([]models.Record, error) {
		return q.client.CompanyInfoCategory(market, code)
	}, models.WithSymbol(code), models.WithMarket(int(market)))
}

// CompanyInfoDetail reads company info content. With a section name that
// exists in the directory it returns just that section; with "" or a name
// the directory does not list, it falls back to every section. A nil map
// means the section directory was empty.
func (q *StdQuotes) CompanyInfoDetail(symbol, name string) (map[string]string, error) {
	market, code, err := DeriveMarket(symbol)
	if err != nil {
		return nil, err
	}

	category, err := q.CompanyInfoCategory(symbol)
	if err != nil {
		return nil, err
	}
	if category.Empty() {
		return nil, nil
	}

	fetch := func(row models.Record) (string, error) {
		content, err := q.client.CompanyInfoContent(
			market, code,
			row.String("filename"),
			fieldInt(row, "start"),
			fieldInt(row, "length"),
		)
		if err != nil {
			return "", models.Transient("company_content", err)
		}
		return content, nil
	}

	if name != "" {
		for _, row := range category.Rows() {
			section := row.String("name")
			if section != name {
				continue
			}
			content, err := fetch(row)
			if err != nil {
				return nil, err
			}
			return map[string]string{section: content}, nil
		}
	}

	out := make(map[string]string)
	for _, row := range category.Rows() {
		content, err := fetch(row)
		if err != nil {
			return nil, err
		}
		out[row.String("name")] = content
	}
	return out, nil
}

// Xdxr fetches dividend and rights issue history.
func (q *StdQuotes) Xdxr(symbol string) (*models.Table, error) {
	market, code, err := DeriveMarket(symbol)
	if err != nil {
		return nil, err
	}

	return q.call("xdxr_info", func() ([]models.Record, error) {
		return q.client.XdxrInfo(market, code)
	}, models.WithSymbol(code), models.WithMarket(int(market)))
}

// Finance fetches company financial metadata.
func (q *StdQuotes) Finance(symbol string) (*models.Table, error) {
	market, code, err := DeriveMarket(symbol)
	if err != nil {
		return nil, err
	}

	return q.call("finance_info", func() ([]models.Record, error) {
		return q.client.FinanceInfo(market, code)
	}, models.WithSymbol(code), models.WithMarket(int(market)))
}

// Block fetches security block (sector) membership.
func (q *StdQuotes) Block(tofile string) (*models.Table, error) {
	return q.call("block_info", func() ([]models.Record, error) {
		return q.client.BlockInfo(tofile)
	})
}

// Ohlc is an alias for K.
func (q *StdQuotes) Ohlc(symbol, begin, end string) (*models.Table, error) {
	return q.K(symbol, begin, end)
}

// fieldInt renders a record field as int, accepting the integer widths the
// protocol layer produces.
func fieldInt(r models.Record, name string) int {
	v, ok := r.Get(name)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
