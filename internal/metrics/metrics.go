package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shardrouter"

// Metrics 路由层对外暴露的指标。reg 为 nil 的时候只创建不注册，方便测试
type Metrics struct {
	Routes         *prometheus.CounterVec
	ReadSelections *prometheus.CounterVec
	FanOut         prometheus.Histogram
	ExecFailures   *prometheus.CounterVec
	DetectorUp     *prometheus.GaugeVec
	DetectorProbes *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "routes_total",
			Help:      "Logical statements routed, by statement type and outcome.",
		}, []string{"type", "outcome"}),
		ReadSelections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "readsplit",
			Name:      "selections_total",
			Help:      "Physical targets chosen for reads.",
		}, []string{"partition", "target", "role"}),
		FanOut: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "statement",
			Name:      "fanout_size",
			Help:      "Physical statements executed per logical statement.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
		}),
		ExecFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "statement",
			Name:      "exec_failures_total",
			Help:      "Physical statement executions that failed, by target.",
		}, []string{"partition", "target"}),
		DetectorUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "up",
			Help:      "1 if the last liveness probe of the detector target succeeded.",
		}, []string{"partition", "target"}),
		DetectorProbes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "probes_total",
			Help:      "Liveness probes, by result.",
		}, []string{"partition", "target", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.Routes, m.ReadSelections, m.FanOut, m.ExecFailures, m.DetectorUp, m.DetectorProbes)
	}
	return m
}
