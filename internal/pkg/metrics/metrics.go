// Package metrics defines and registers all custom Prometheus metrics for the
// accounts service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// AccountLifecycleTotal counts lifecycle workflow outcomes.
// Labels:
//   - operation: "create", "update_engineer", "set_customer_active", "delete", "update_profile"
//   - outcome: "success", "validation_error", "not_found", "partial_failure", "error"
var AccountLifecycleTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lifecycle_operations_total",
		Help:      "Total number of account lifecycle workflows, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal counts account emails by delivery result.
// Label:
//   - result: "sent", "failed", "dropped"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of account notification emails, by delivery result.",
	},
	[]string{"result"},
)

// NotificationQueueDepth tracks pending emails in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of emails pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Cache metrics ─────────────────────────────────────────────────────────────

// NavigationBuildsTotal counts navigation menu builds.
// Label:
//   - result: "ok" or "error"
var NavigationBuildsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "navigation_builds_total",
		Help:      "Total number of navigation menu builds.",
	},
	[]string{"result"},
)

// SessionCacheLookupsTotal counts request-scoped cache reads.
// Label:
//   - result: "hit" or "miss"
var SessionCacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_cache_lookups_total",
		Help:      "Total number of session list-cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts served requests.
// Labels:
//   - method: HTTP method
//   - route: the matched route pattern, not the raw path
//   - status: response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests, by method, route and status.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures request latency per route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds, by method and route.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)
