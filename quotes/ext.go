package quotes

import (
	"strconv"
	"strings"

	"github.com/maxwell-lv/mootdx/logger"
	"github.com/maxwell-lv/mootdx/models"
	"github.com/maxwell-lv/mootdx/server"
)

// ExtQuotes is the extended market facade (futures, options, funds and the
// other non-stock boards). Unlike StdQuotes every remote call runs under the
// retry policy, so a flaky extended server degrades to empty tables instead
// of surfacing transient errors. Argument validation runs inside that policy
// as well: a bad (market, symbol) pair burns the attempts before its error
// surfaces.
type ExtQuotes struct {
	session *Session
	client  ExtProtocolClient
	retry   *RetryPolicy
	log     *logger.Entry
}

// NewExt resolves an EX endpoint and attempts an initial connection. A
// connect failure here is logged but not returned: extended endpoints churn
// often enough that the first real call gets a reconnect chance of its own.
func NewExt(client ExtProtocolClient, opts Options) (*ExtQuotes, error) {
	endpoint, err := opts.directory().Resolve(server.SegmentEX, opts.Server, opts.BestIP)
	if err != nil {
		return nil, err
	}

	q := &ExtQuotes{
		session: NewSession(client, endpoint, opts.Timeout),
		client:  client,
		log:     logger.GetLogger().WithComponent("ext_quotes"),
	}
	q.retry = NewRetryPolicy(q.session)

	if err := q.session.Connect(); err != nil {
		q.log.WithError(err).WithFields(logger.Fields{"server": endpoint.String()}).Error("initial connect failed")
	}
	return q, nil
}

// Alive reports session liveness.
func (q *ExtQuotes) Alive() bool {
	return q.session.Alive()
}

// Close releases the session transport.
func (q *ExtQuotes) Close() error {
	return q.session.Close()
}

// Validate resolves the (market, symbol) pair for extended calls. The
// market may be given explicitly or packed into the symbol as
// "market#symbol"; a missing market is a validation error.
func (q *ExtQuotes) Validate(market, symbol string) (int, string, error) {
	if market == "" {
		if head, tail, ok := strings.Cut(symbol, "#"); ok {
			market, symbol = head, tail
		}
	}
	if market == "" {
		return 0, "", models.Validationf("market is required, give it explicitly or as market#symbol")
	}
	code, err := strconv.Atoi(market)
	if err != nil {
		return 0, "", models.Validationf("invalid market %q", market)
	}
	return code, symbol, nil
}

// call runs one remote round-trip under the retry policy, reconnecting when
// the session has gone dead between calls.
func (q *ExtQuotes) call(op string, fn func() ([]models.Record, error), opts ...models.TableOption) (*models.Table, error) {
	t, err := Retry(q.retry, func() (*models.Table, error) {
		if err := q.session.EnsureConnected(); err != nil {
			return nil, err
		}
		records, err := fn()
		if err != nil {
			return nil, models.Transient(op, err)
		}
		return models.NewTable(records, opts...), nil
	}, TableEmpty)
	if err != nil {
		return nil, err
	}
	if t == nil {
		t = models.NewTable(nil)
	}
	logger.AddRowsFetched(t.Len())
	return t, nil
}

// callValidated is call for operations that take a (market, symbol) pair.
// Validate runs inside the retried attempt, so a bad pair counts against
// the retry budget exactly like a transient failure before the error
// reaches the caller. No remote round-trip happens for a pair that does
// not validate.
func (q *ExtQuotes) callValidated(op, market, symbol string, fn func(code int, sym string) ([]models.Record, error)) (*models.Table, error) {
	t, err := Retry(q.retry, func() (*models.Table, error) {
		code, sym, err := q.Validate(market, symbol)
		if err != nil {
			return nil, err
		}
		if err := q.session.EnsureConnected(); err != nil {
			return nil, err
		}
		records, err := fn(code, sym)
		if err != nil {
			return nil, models.Transient(op, err)
		}
		return models.NewTable(records, models.WithSymbol(sym), models.WithMarket(code)), nil
	}, TableEmpty)
	if err != nil {
		return nil, err
	}
	if t == nil {
		t = models.NewTable(nil)
	}
	logger.AddRowsFetched(t.Len())
	return t, nil
}

// Markets lists the extended market boards.
func (q *ExtQuotes) Markets() (*models.Table, error) {
	return q.call("markets", q.client.Markets)
}

// InstrumentCount returns the total number of extended instruments.
func (q *ExtQuotes) InstrumentCount() (int, error) {
	return Retry(q.retry, func() (int, error) {
		if err := q.session.EnsureConnected(); err != nil {
			return 0, err
		}
		count, err := q.client.InstrumentCount()
		if err != nil {
			return 0, models.Transient("instrument_count", err)
		}
		return count, nil
	}, IntEmpty)
}

// Instrument fetches one page of the instrument directory.
func (q *ExtQuotes) Instrument(start, offset int) (*models.Table, error) {
	return q.call("instrument_info", func() ([]models.Record, error) {
		return q.client.InstrumentInfo(start, offset)
	})
}

// Instruments fetches the whole instrument directory, paging in chunks of
// 100 from the reported count.
func (q *ExtQuotes) Instruments() (*models.Table, error) {
	count, err := q.InstrumentCount()
	if err != nil {
		return nil, err
	}

	pages := make([]*models.Table, 0, count/100+1)
	for start := 0; start < count; start += 100 {
		page, err := q.Instrument(start, 100)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
		q.log.WithFields(logger.Fields{"start": start, "total": count}).Debug("fetched instrument page")
	}
	return models.Concat(pages...), nil
}

// Quote fetches a five-level real-time quote for one instrument.
func (q *ExtQuotes) Quote(market, symbol string) (*models.Table, error) {
	return q.callValidated("instrument_quote", market, symbol, func(code int, sym string) ([]models.Record, error) {
		return q.client.InstrumentQuote(code, sym)
	})
}

// Minute fetches today's minute-by-minute data for one instrument.
func (q *ExtQuotes) Minute(market, symbol string) (*models.Table, error) {
	return q.callValidated("minute", market, symbol, func(code int, sym string) ([]models.Record, error) {
		return q.client.MinuteTimeData(code, sym)
	})
}

// Minutes fetches minute-by-minute data for a past trading day given as
// YYYYMMDD.
func (q *ExtQuotes) Minutes(market, symbol, date string) (*models.Table, error) {
	return q.callValidated("history_minute", market, symbol, func(code int, sym string) ([]models.Record, error) {
		return q.client.HistoryMinuteTimeData(code, sym, date)
	})
}

// Bars fetches K-line bars for one instrument.
func (q *ExtQuotes) Bars(market, symbol string, frequency Frequency, start, offset int) (*models.Table, error) {
	if !ValidFrequency(frequency) {
		return nil, models.Validationf("invalid frequency %d", frequency)
	}
	offset = clampOffset(offset)

	return q.callValidated("instrument_bars", market, symbol, func(code int, sym string) ([]models.Record, error) {
		return q.client.InstrumentBars(frequency, code, sym, start, offset)
	})
}

// Transaction fetches today's tick transactions for one instrument.
func (q *ExtQuotes) Transaction(market, symbol string, start, offset int) (*models.Table, error) {
	offset = clampOffset(offset)

	return q.callValidated("transaction", market, symbol, func(code int, sym string) ([]models.Record, error) {
		return q.client.TransactionData(code, sym, start, offset)
	})
}

// Transactions fetches tick transactions for a past trading day given as
// YYYYMMDD.
func (q *ExtQuotes) Transactions(market, symbol string, date, start, offset int) (*models.Table, error) {
	offset = clampOffset(offset)

	return q.callValidated("history_transaction", market, symbol, func(code int, sym string) ([]models.Record, error) {
		return q.client.HistoryTransactionData(code, sym, date, start, offset)
	})
}
