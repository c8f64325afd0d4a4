package metrics

import "github.com/prometheus/client_golang/prometheus"

// GateMetrics counts per-request gate decisions.
type GateMetrics struct {
	decisions *prometheus.CounterVec
}

// NewGateMetrics registers the gate decision counter on the provided registerer.
func NewGateMetrics(reg prometheus.Registerer) *GateMetrics {
	if reg == nil {
		return &GateMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gate_decisions",
		Help: "Request gate outcomes: public, webhook, allowed, sign_in_redirect, rbac_redirect.",
	}, []string{"decision"})
	reg.MustRegister(decisions)
	return &GateMetrics{decisions: decisions}
}

// IncDecision increments the counter for the named outcome.
func (g *GateMetrics) IncDecision(decision string) {
	if g == nil || g.decisions == nil {
		return
	}
	g.decisions.WithLabelValues(normalizeLabel(decision)).Inc()
}
