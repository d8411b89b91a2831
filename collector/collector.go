// Package collector syncs daily K-line history for a configured symbol list
// into the local store and the parquet archive.
package collector

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	appconfig "github.com/maxwell-lv/mootdx/config"
	"github.com/maxwell-lv/mootdx/logger"
	"github.com/maxwell-lv/mootdx/models"
	"github.com/maxwell-lv/mootdx/store"
	"github.com/maxwell-lv/mootdx/writer"
)

// BarSource yields daily bars for a closed-open date range. The standard
// quote facade satisfies it.
type BarSource interface {
	K(symbol, begin, end string) (*models.Table, error)
}

// Summary reports the outcome of one collector run.
type Summary struct {
	Symbols int
	Synced  int
	Skipped int
	Errors  int
	Rows    int
}

// Collector pulls each configured symbol's missing history, upserts it into
// the store and archives the fetched batch as parquet. One flaky symbol
// never aborts the run.
type Collector struct {
	cfg     *appconfig.Config
	source  BarSource
	store   *store.KlineStore
	writer  *writer.KlineWriter
	cal     *tradingCalendar
	limiter *rate.Limiter
	log     *logger.Entry

	now func() time.Time
}

// New wires a collector from its parts. The writer may be nil when no
// parquet archive is wanted.
func New(cfg *appconfig.Config, source BarSource, st *store.KlineStore, wr *writer.KlineWriter) *Collector {
	return &Collector{
		cfg:    cfg,
		source: source,
		store:  st,
		writer: wr,
		cal:    newTradingCalendar(cfg.Collector.Calendar),
		limiter: rate.NewLimiter(
			rate.Limit(cfg.Collector.RateLimit.RequestsPerSecond),
			cfg.Collector.RateLimit.BurstSize,
		),
		log: logger.GetLogger().WithComponent("collector"),
		now: time.Now,
	}
}

// endDate is the exclusive upper bound of a sync: tomorrow on a trading day,
// today otherwise, so a weekend run never asks the server for bars that
// cannot exist yet.
func (c *Collector) endDate() string {
	today := c.now()
	if c.cal.IsTradingDay(today) {
		return today.AddDate(0, 0, 1).Format("2006-01-02")
	}
	return today.Format("2006-01-02")
}

// beginDate picks the fetch start for one symbol: the day already stored
// last, refetched to pick up revisions, or the configured begin for a fresh
// symbol.
func (c *Collector) beginDate(ctx context.Context, symbol string) (string, error) {
	last, err := c.store.LastDate(ctx, symbol)
	if err != nil {
		return "", err
	}
	begin := c.cfg.Collector.Begin
	if last > begin {
		begin = last
	}
	return begin, nil
}

// Run syncs every configured symbol once and returns a per-run summary. The
// only errors it returns are context cancellation; per-symbol failures are
// logged and counted.
func (c *Collector) Run(ctx context.Context) (*Summary, error) {
	end := c.endDate()
	summary := &Summary{Symbols: len(c.cfg.Collector.Symbols)}

	c.log.WithFields(logger.Fields{
		"symbols": summary.Symbols,
		"end":     end,
	}).Info("collector run started")

	for _, symbol := range c.cfg.Collector.Symbols {
		if err := c.limiter.Wait(ctx); err != nil {
			return summary, err
		}

		rows, err := c.syncSymbol(ctx, symbol, end)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			c.log.WithError(err).WithFields(logger.Fields{"symbol": symbol}).Error("symbol sync failed")
			summary.Errors++
			continue
		}
		if rows == 0 {
			summary.Skipped++
			continue
		}
		summary.Synced++
		summary.Rows += rows
	}

	c.log.WithFields(logger.Fields{
		"synced":  summary.Synced,
		"skipped": summary.Skipped,
		"errors":  summary.Errors,
		"rows":    summary.Rows,
	}).Info("collector run finished")
	return summary, nil
}

func (c *Collector) syncSymbol(ctx context.Context, symbol, end string) (int, error) {
	begin, err := c.beginDate(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if begin == "" || begin >= end {
		return 0, nil
	}

	table, err := c.source.K(symbol, begin, end)
	if err != nil {
		return 0, err
	}
	bars := models.BarsFromTable(table)
	if len(bars) == 0 {
		c.log.WithFields(logger.Fields{
			"symbol": symbol,
			"begin":  begin,
			"end":    end,
		}).Debug("no new bars")
		return 0, nil
	}

	written, err := c.store.Upsert(ctx, bars)
	if err != nil {
		return 0, err
	}
	if c.writer != nil {
		if _, err := c.writer.WriteBatch(symbol, bars); err != nil {
			return 0, err
		}
	}

	c.log.WithFields(logger.Fields{
		"symbol": symbol,
		"begin":  begin,
		"end":    end,
		"rows":   written,
	}).Info("symbol synced")
	return written, nil
}
