// Package metrics exposes the countdown's Prometheus instruments.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "countdown"

// Recorder holds the registered instruments. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	reg            *prom.Registry
	crossings      *prom.CounterVec
	notifyFailures *prom.CounterVec
	sunriseUpdates *prom.CounterVec
	secondsToNext  prom.Gauge
	epoch          prom.Gauge
}

// New registers all instruments on reg (a fresh registry when nil).
func New(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		reg: reg,
		crossings: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "crossings_total",
			Help:      "Stage boundary crossings announced",
		}, []string{"stage"}),
		notifyFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notify_failures_total",
			Help:      "Notification deliveries that failed",
		}, []string{"notifier"}),
		sunriseUpdates: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sunrise_updates_total",
			Help:      "Sunrise acquisition results by origin",
		}, []string{"origin", "result"}),
		secondsToNext: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "seconds_to_next_stage",
			Help:      "Time remaining until the next pending stage, 0 when none",
		}),
		epoch: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "epoch",
			Help:      "Number of sunrise changes since start",
		}),
	}
	reg.MustRegister(r.crossings, r.notifyFailures, r.sunriseUpdates, r.secondsToNext, r.epoch)
	return r
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Recorder) Crossing(stage string) {
	if r == nil {
		return
	}
	r.crossings.WithLabelValues(stage).Inc()
}

func (r *Recorder) NotifyFailure(notifier string) {
	if r == nil {
		return
	}
	r.notifyFailures.WithLabelValues(notifier).Inc()
}

// SunriseUpdate counts an acquisition outcome; result is "ok", "error" or "ignored".
func (r *Recorder) SunriseUpdate(origin, result string) {
	if r == nil {
		return
	}
	r.sunriseUpdates.WithLabelValues(origin, result).Inc()
}

func (r *Recorder) Observe(remaining time.Duration, epoch int) {
	if r == nil {
		return
	}
	r.secondsToNext.Set(remaining.Seconds())
	r.epoch.Set(float64(epoch))
}
