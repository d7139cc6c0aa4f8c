package monitor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/morezaGeek/Server-Monitor/internal/server"
	"github.com/morezaGeek/Server-Monitor/internal/telemetry"
)

// DefaultTimeout bounds one fetch from one dashboard.
const DefaultTimeout = 5 * time.Second

// historyFetcher is satisfied by *Client.
type historyFetcher interface {
	History(ctx context.Context, limit int) (*server.HistoryResponse, error)
}

// Result is the outcome of one fetch.
type Result struct {
	Name    string
	History *server.HistoryResponse
	Err     error
	At      time.Time
}

// Latest returns the newest sample, or nil when there is none.
func (r Result) Latest() *telemetry.Sample {
	if r.History == nil || len(r.History.Samples) == 0 {
		return nil
	}
	return &r.History.Samples[len(r.History.Samples)-1]
}

// Collector fetches telemetry from a fixed set of dashboards.
type Collector struct {
	names   []string
	fetch   map[string]historyFetcher
	limit   int
	timeout time.Duration
}

// NewCollector builds a collector. Duplicate names get a numeric suffix so
// every card is addressable.
func NewCollector(dashboards []Dashboard, limit int, timeout time.Duration) *Collector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Collector{
		fetch:   make(map[string]historyFetcher, len(dashboards)),
		limit:   limit,
		timeout: timeout,
	}
	for _, d := range dashboards {
		name := d.displayName()
		for i := 2; c.fetch[name] != nil; i++ {
			name = d.displayName() + "#" + strconv.Itoa(i)
		}
		c.names = append(c.names, name)
		c.fetch[name] = NewClient(d)
	}
	return c
}

// Names returns the dashboard names in the order they were given.
func (c *Collector) Names() []string {
	return append([]string(nil), c.names...)
}

// Collect fetches one dashboard, bounded by the collector timeout.
func (c *Collector) Collect(ctx context.Context, name string) Result {
	f, ok := c.fetch[name]
	if !ok {
		return Result{Name: name, Err: fmt.Errorf("unknown dashboard %q", name), At: time.Now()}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	history, err := f.History(ctx, c.limit)
	return Result{Name: name, History: history, Err: err, At: time.Now()}
}
