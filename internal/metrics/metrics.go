package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledger"

var (
	// JournalEntriesPosted counts journal entries that reached the posted state.
	JournalEntriesPosted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "journal_entries_posted_total",
		Help:      "Journal entries posted, by source workflow.",
	}, []string{"source"})

	// PostingRejections counts postings refused by validation or integrity checks.
	PostingRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "journal_posting_rejections_total",
		Help:      "Journal postings rejected before commit, by reason.",
	}, []string{"reason"})

	// NumbersIssued counts document numbers issued per series kind.
	NumbersIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "numbers_issued_total",
		Help:      "Document numbers issued, by series kind.",
	}, []string{"kind"})

	// BatchItems counts items handled by batch jobs.
	BatchItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_items_total",
		Help:      "Items processed by batch jobs, by job and outcome.",
	}, []string{"job", "outcome"})

	// BatchDuration observes how long a batch run takes.
	BatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_duration_seconds",
		Help:      "Duration of batch job runs.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})

	// Reconciliations counts reconciliation attempts by outcome.
	Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bank_reconciliations_total",
		Help:      "Bank reconciliation attempts, by balanced outcome.",
	}, []string{"balanced"})

	// StatementRows counts imported statement rows by outcome.
	StatementRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "statement_rows_total",
		Help:      "Bank statement rows seen by imports, by outcome.",
	}, []string{"outcome"})

	// HTTPRequestDuration observes API latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency, by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
