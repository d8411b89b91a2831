package server

import (
	"sync"

	"github.com/maxwell-lv/mootdx/logger"
	"github.com/maxwell-lv/mootdx/models"
)

// Market segments served by the directory.
const (
	SegmentHQ = "HQ" // standard stock market
	SegmentEX = "EX" // extended/futures market
)

// Built-in candidate pools. These are the long-lived public TDX hosts; a
// previously benchmarked best endpoint can be recorded per segment and takes
// precedence. Benchmarking itself happens outside this package.
var defaultPools = map[string][]Endpoint{
	SegmentHQ: {
		{Addr: "119.147.212.81", Port: 7709},
		{Addr: "112.95.140.74", Port: 7709},
		{Addr: "114.80.63.12", Port: 7709},
		{Addr: "180.153.18.170", Port: 7709},
		{Addr: "221.231.141.60", Port: 7709},
		{Addr: "101.227.73.20", Port: 7709},
		{Addr: "14.215.128.18", Port: 7709},
		{Addr: "59.173.18.140", Port: 7709},
	},
	SegmentEX: {
		{Addr: "112.74.214.43", Port: 7727},
		{Addr: "119.147.86.171", Port: 7727},
		{Addr: "59.175.238.38", Port: 7727},
		{Addr: "47.107.75.159", Port: 7727},
	},
}

// Directory supplies candidate endpoints per market segment and remembers
// the best known endpoint once something outside this package has measured
// it. A facade consumes exactly one resolved endpoint at construction time.
type Directory struct {
	mu   sync.RWMutex
	best map[string]Endpoint
	log  *logger.Entry
}

func NewDirectory() *Directory {
	return &Directory{
		best: make(map[string]Endpoint),
		log:  logger.GetLogger().WithComponent("server_directory"),
	}
}

// Defaults returns the built-in candidate pool for a segment, in preference
// order.
func (d *Directory) Defaults(segment string) []Endpoint {
	pool := defaultPools[segment]
	out := make([]Endpoint, len(pool))
	copy(out, pool)
	return out
}

// SetBest records a benchmarked best endpoint for a segment.
func (d *Directory) SetBest(segment string, ep Endpoint) {
	d.mu.Lock()
	d.best[segment] = ep
	d.mu.Unlock()
	d.log.WithFields(logger.Fields{"segment": segment, "endpoint": ep.String()}).Debug("recorded best endpoint")
}

// Best returns the recorded best endpoint for a segment, if any.
func (d *Directory) Best(segment string) (Endpoint, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ep, ok := d.best[segment]
	return ep, ok
}

// Resolve picks the endpoint a new session should connect to: an explicit
// override wins, then the recorded best endpoint when useBest is set, then
// the head of the default pool.
func (d *Directory) Resolve(segment string, override *Endpoint, useBest bool) (Endpoint, error) {
	if override != nil {
		ep, err := NewEndpoint(override.Addr, override.Port)
		if err != nil {
			return Endpoint{}, err
		}
		// An explicit server doubles as the best known endpoint for the
		// session's segment.
		d.SetBest(segment, ep)
		return ep, nil
	}
	if useBest {
		if ep, ok := d.Best(segment); ok {
			return ep, nil
		}
	}
	pool := defaultPools[segment]
	if len(pool) == 0 {
		return Endpoint{}, models.Validationf("unknown market segment %q", segment)
	}
	return pool[0], nil
}
