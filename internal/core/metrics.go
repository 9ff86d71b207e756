// AngelaMos | 2026
// metrics.go

package core

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "auth"

var (
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "logins_total",
		Help:      "Login attempts by result.",
	}, []string{"result"})

	RefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "refreshes_total",
		Help:      "Refresh token rotations by result.",
	}, []string{"result"})

	LogoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "logouts_total",
		Help:      "Logout calls.",
	})

	SweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "sweep_runs_total",
		Help:      "Refresh token sweeps by result.",
	}, []string{"result"})

	SweepDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "sweep_deleted_total",
		Help:      "Refresh token records physically deleted by the sweeper.",
	})
)

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
