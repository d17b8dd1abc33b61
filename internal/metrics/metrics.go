// Package metrics provides Prometheus collectors for the interview flow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates the counters exposed at /metrics.
type Metrics struct {
	sessionsStarted   prometheus.Counter
	sessionsCompleted prometheus.Counter
	sessionsAborted   prometheus.Counter
	fallbackUsed      prometheus.Counter
	answersSaved      *prometheus.CounterVec
	webhookDuration   *prometheus.HistogramVec
	responderTurns    *prometheus.CounterVec
}

// New registers the interview collectors on the default registry.
func New() *Metrics {
	return &Metrics{
		sessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_sessions_started_total",
			Help: "Interview sessions that passed metadata intake",
		}),
		sessionsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_sessions_completed_total",
			Help: "Interview sessions that exhausted their question set",
		}),
		sessionsAborted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_sessions_aborted_total",
			Help: "Interview sessions abandoned by explicit user choice",
		}),
		fallbackUsed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_fallback_questions_total",
			Help: "Sessions that fell back to the built-in question list",
		}),
		answersSaved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_answers_saved_total",
			Help: "Answer save attempts by outcome",
		}, []string{"status"}),
		webhookDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "webhook_request_duration_seconds",
			Help:    "Duration of workflow webhook calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		responderTurns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "responder_turns_total",
			Help: "Chat completion turns by mode and outcome",
		}, []string{"mode", "status"}),
	}
}

// SessionStarted records a session entering the interviewing phase.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

// SessionCompleted records natural exhaustion of the question set.
func (m *Metrics) SessionCompleted() {
	if m == nil {
		return
	}
	m.sessionsCompleted.Inc()
}

// SessionAborted records an explicit user abort.
func (m *Metrics) SessionAborted() {
	if m == nil {
		return
	}
	m.sessionsAborted.Inc()
}

// FallbackUsed records substitution of the built-in question list.
func (m *Metrics) FallbackUsed() {
	if m == nil {
		return
	}
	m.fallbackUsed.Inc()
}

// AnswerSaved records one save attempt outcome ("ok" or "failed").
func (m *Metrics) AnswerSaved(status string) {
	if m == nil {
		return
	}
	m.answersSaved.WithLabelValues(status).Inc()
}

// ObserveWebhook records the duration of one webhook call.
func (m *Metrics) ObserveWebhook(endpoint string, d time.Duration) {
	if m == nil {
		return
	}
	m.webhookDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ResponderTurn records one chat turn ("stream"/"invoke", "ok"/"error").
func (m *Metrics) ResponderTurn(mode, status string) {
	if m == nil {
		return
	}
	m.responderTurns.WithLabelValues(mode, status).Inc()
}
