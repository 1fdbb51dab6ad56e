// Package metrics records RED style request metrics for the shop front.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	auth "github.com/goliatone/go-shop-auth"
	"github.com/goliatone/go-shop-auth/middleware/chain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shop"

// unknownTenant labels requests for hosts with no shop, so arbitrary Host
// headers cannot blow up label cardinality
const unknownTenant = "unknown"

// Metrics holds the collectors, register them once per registry
type Metrics struct {
	reqs   *prometheus.CounterVec
	durs   *prometheus.HistogramVec
	events *prometheus.CounterVec
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total requests",
		}, []string{"method", "status", "tenant"}),

		durs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "events_total",
			Help:      "Authentication events by type",
		}, []string{"event"}),
	}

	reg.MustRegister(m.reqs, m.durs, m.events)
	return m
}

// Middleware observes every request that passes through it. It should sit
// after the tenant interceptor in the chain wrapping order so the tenant
// label is known on the way out.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = chain.StatusOf(err)
		}

		tenant := unknownTenant
		if rt, ok := auth.TenantFrom(c); ok && rt.Found() {
			tenant = rt.Config.Domain
		}

		method := c.Method()
		m.reqs.WithLabelValues(method, strconv.Itoa(status), tenant).Inc()
		m.durs.WithLabelValues(method).Observe(time.Since(start).Seconds())

		return err
	}
}

// ActivitySink counts authentication events
func (m *Metrics) ActivitySink() auth.ActivitySink {
	return auth.ActivitySinkFunc(func(_ context.Context, event auth.ActivityEvent) error {
		m.events.WithLabelValues(string(event.EventType)).Inc()
		return nil
	})
}

// Handler serves the collected metrics in the prometheus exposition format
func Handler(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
