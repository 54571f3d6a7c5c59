// Package metrics AI 回答任务的 Prometheus 指标
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AugmentRecorder 工作池与生成服务使用的指标接口
type AugmentRecorder interface {
	RecordEnqueued()
	RecordDropped()
	RecordOutcome(outcome string)
	RecordLatency(d time.Duration)
	SetQueueDepth(n int)
}

// Collector Prometheus 实现
type Collector struct {
	enqueued   prometheus.Counter
	dropped    prometheus.Counter
	outcomes   *prometheus.CounterVec
	latency    prometheus.Histogram
	queueDepth prometheus.Gauge
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agora_augment_enqueued_total",
			Help: "Augmentation tasks accepted by the dispatcher.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agora_augment_dropped_total",
			Help: "Augmentation tasks dropped because the queue was full.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_augment_outcome_total",
			Help: "Augmentation results by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agora_augment_latency_seconds",
			Help:    "End-to-end augmentation latency.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agora_augment_queue_depth",
			Help: "Tasks waiting in the in-process queue.",
		}),
	}

	reg.MustRegister(c.enqueued, c.dropped, c.outcomes, c.latency, c.queueDepth)
	return c
}

func (c *Collector) RecordEnqueued() {
	c.enqueued.Inc()
}

func (c *Collector) RecordDropped() {
	c.dropped.Inc()
}

func (c *Collector) RecordOutcome(outcome string) {
	c.outcomes.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordLatency(d time.Duration) {
	c.latency.Observe(d.Seconds())
}

func (c *Collector) SetQueueDepth(n int) {
	c.queueDepth.Set(float64(n))
}

// Handler 暴露指定 registry 的指标
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Nop 不记录任何指标
type Nop struct{}

func (Nop) RecordEnqueued()             {}
func (Nop) RecordDropped()              {}
func (Nop) RecordOutcome(string)        {}
func (Nop) RecordLatency(time.Duration) {}
func (Nop) SetQueueDepth(int)           {}
