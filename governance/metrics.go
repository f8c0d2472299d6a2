package governance

import "github.com/prometheus/client_golang/prometheus"

// Recorder is the narrow interface the accumulator uses to publish
// observability data. Implementations must never influence an admission
// decision — they observe it after the fact.
type Recorder interface {
	ObserveWarning(cost float64)
	ObserveAdmitted(cost float64)
	ObserveRejection(reason string)
}

type noopRecorder struct{}

func (noopRecorder) ObserveWarning(float64)  {}
func (noopRecorder) ObserveAdmitted(float64) {}
func (noopRecorder) ObserveRejection(string) {}

// PrometheusRecorder publishes admission-cost and admission-outcome metrics
// to a prometheus.Registerer. Grounded on certenIO-certen-validator's
// go.mod, the pack's evidence that client_golang is the ecosystem's default
// instrumentation library for systems of this shape.
type PrometheusRecorder struct {
	cost       prometheus.Histogram
	admissions *prometheus.CounterVec
	rejections *prometheus.CounterVec
}

// NewPrometheusRecorder registers and returns a Recorder. reg may be nil,
// in which case prometheus.DefaultRegisterer is used.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PrometheusRecorder{
		cost: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "obi_admission_cost",
			Help:    "Accumulated Sinphasé governance cost per admission.",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 1.0},
		}),
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "obi_admissions_total",
			Help: "Admissions by result.",
		}, []string{"result"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "obi_admission_rejections_total",
			Help: "Rejected admissions by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(r.cost, r.admissions, r.rejections)
	return r
}

func (r *PrometheusRecorder) ObserveWarning(cost float64) {
	r.cost.Observe(cost)
	r.admissions.WithLabelValues("warned").Inc()
}

func (r *PrometheusRecorder) ObserveAdmitted(cost float64) {
	r.cost.Observe(cost)
	r.admissions.WithLabelValues("admitted").Inc()
}

func (r *PrometheusRecorder) ObserveRejection(reason string) {
	r.admissions.WithLabelValues("rejected").Inc()
	r.rejections.WithLabelValues(reason).Inc()
}
