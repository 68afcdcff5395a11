package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "erp_client"

// Logout reasons.
const (
	ReasonUser          = "user"
	ReasonInvalidated   = "invalidated"
	ReasonRefreshFailed = "refresh_failed"
	ReasonLoginFailed   = "login_failed"
)

// Recorder receives session and transport events.
type Recorder interface {
	Login()
	Logout(reason string)
	Rotation(success bool)
	ResponseClassified(transport string, invalidating bool)
	TenantInjected(transport, kind string)
}

// Nop discards every event.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) Login() {}
func (Nop) Logout(string) {}
func (Nop) Rotation(bool) {}
func (Nop) ResponseClassified(string, bool) {}
func (Nop) TenantInjected(string, string) {}

// Prometheus records events as counters.
type Prometheus struct {
	logins     prometheus.Counter
	logouts    *prometheus.CounterVec
	rotations  *prometheus.CounterVec
	classified *prometheus.CounterVec
	injections *prometheus.CounterVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus creates the counters and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "logins_total",
			Help:      "Successful logins.",
		}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "logouts_total",
			Help:      "Session teardowns by reason.",
		}, []string{"reason"}),
		rotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "rotations_total",
			Help:      "Token rotation attempts by outcome.",
		}, []string{"success"}),
		classified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "error_responses_total",
			Help:      "Error responses by transport and whether they invalidated the session.",
		}, []string{"transport", "invalidating"}),
		injections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "tenant_injections_total",
			Help:      "Outgoing requests by transport and tenant injection kind.",
		}, []string{"transport", "kind"}),
	}

	for _, c := range []prometheus.Collector{p.logins, p.logouts, p.rotations, p.classified, p.injections} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) Login() {
	p.logins.Inc()
}

func (p *Prometheus) Logout(reason string) {
	p.logouts.WithLabelValues(reason).Inc()
}

func (p *Prometheus) Rotation(success bool) {
	p.rotations.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func (p *Prometheus) ResponseClassified(transport string, invalidating bool) {
	p.classified.WithLabelValues(transport, strconv.FormatBool(invalidating)).Inc()
}

func (p *Prometheus) TenantInjected(transport, kind string) {
	p.injections.WithLabelValues(transport, kind).Inc()
}
