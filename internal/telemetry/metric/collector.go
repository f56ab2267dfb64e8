package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UserCounter returns the number of known users.
type UserCounter func(ctx context.Context) (int64, error)

// Collector reports the size of the user registry at scrape time.
type Collector struct {
	count   UserCounter
	timeout time.Duration
	users   *prometheus.Desc
	errors  *prometheus.Desc
}

// NewCollector creates a collector backed by count.
func NewCollector(count UserCounter) *Collector {
	return &Collector{
		count:   count,
		timeout: 5 * time.Second,
		users: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "users"),
			"Users known to the bot",
			nil, nil,
		),
		errors: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "users_scrape_error"),
			"1 if counting users failed during the last scrape",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.users
	ch <- c.errors
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	n, err := c.count(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.errors, prometheus.GaugeValue, 1)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.users, prometheus.GaugeValue, float64(n))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.GaugeValue, 0)
}
