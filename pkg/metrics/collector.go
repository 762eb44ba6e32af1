package metrics

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartSource is the cart state the collector samples
type CartSource interface {
	Len() int
	Total() decimal.Decimal
}

// Collector periodically samples cart gauges
type Collector struct {
	source   CartSource
	interval time.Duration
	stopCh   chan struct{}
}

// NewCollector creates a new metrics collector sampling every interval
func NewCollector(source CartSource, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Collector{
		source:   source,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	CartLines.Set(float64(c.source.Len()))
	CartValue.Set(c.source.Total().InexactFloat64())
}
