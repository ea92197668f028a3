package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	ImportStageBuildings = "buildings"
	ImportStageMappings  = "mappings"
)

const (
	ImportReasonDeadlineExceeded    = "deadline_exceeded"
	ImportReasonLockHeld            = "lock_held"
	ImportReasonRegistryUnavailable = "registry_unavailable"
	ImportReasonDBLockTimeout       = "db_lock_timeout"
	ImportReasonUniqueViolation     = "unique_violation"
	ImportReasonDB                  = "db"
	ImportReasonUnknown             = "unknown"
)

const (
	ImportOutcomeSucceeded = "succeeded"
	ImportOutcomeFailed    = "failed"
	ImportOutcomeSkipped   = "skipped"
)

// ErrImportLockHeld is matched by ClassifyImportReason; callers wrap their own lock error with it.
var ErrImportLockHeld = errors.New("import_lock_held")

// ImportMetrics captures health signals of the weekly registry import.
type ImportMetrics struct {
	runs           *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	errors         *prometheus.CounterVec
	processed      *prometheus.CounterVec
	lastSuccess    prometheus.Gauge
	buildingsTotal prometheus.Gauge
}

var (
	importMetricsOnce sync.Once
	importMetrics     *ImportMetrics
)

// Import returns the singleton import metrics registered on the default registerer.
func Import() *ImportMetrics {
	return ImportWithConfig(Config{})
}

// ImportWithConfig returns the singleton import metrics using config labels.
func ImportWithConfig(cfg Config) *ImportMetrics {
	importMetricsOnce.Do(func() {
		importMetrics = NewImportMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return importMetrics
}

// ResetImportMetricsForTest resets the import metrics singleton for tests.
func ResetImportMetricsForTest() {
	importMetricsOnce = sync.Once{}
	importMetrics = nil
}

// NewImportMetrics registers the import collectors on registerer.
func NewImportMetrics(registerer prometheus.Registerer, cfg Config) *ImportMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "open-swiss-buildings"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &ImportMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "osb_import_runs_total",
			Help:        "Registry import runs by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "osb_import_stage_duration_seconds",
			Help:        "Registry import stage latency.",
			Buckets:     []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800, 3600, 7200},
			ConstLabels: constLabels,
		}, []string{"stage"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "osb_import_errors_total",
			Help:        "Registry import errors by stage and low-cardinality reason.",
			ConstLabels: constLabels,
		}, []string{"stage", "reason"}),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "osb_import_records_processed_total",
			Help:        "Records written per import stage.",
			ConstLabels: constLabels,
		}, []string{"stage"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "osb_import_last_success_timestamp_seconds",
			Help:        "Unix time of the last successful import.",
			ConstLabels: constLabels,
		}),
		buildingsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "osb_building_metadata_records",
			Help:        "Building metadata rows after the last import.",
			ConstLabels: constLabels,
		}),
	}

	registerer.MustRegister(m.runs, m.duration, m.errors, m.processed, m.lastSuccess, m.buildingsTotal)
	return m
}

// Collectors returns the collectors so a job-local registry can push them.
func (m *ImportMetrics) Collectors() []prometheus.Collector {
	if m == nil {
		return nil
	}
	return []prometheus.Collector{m.runs, m.duration, m.errors, m.processed, m.lastSuccess, m.buildingsTotal}
}

func (m *ImportMetrics) IncRun(outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}

func (m *ImportMetrics) ObserveStageDuration(stage string, duration time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(stage).Observe(duration.Seconds())
}

func (m *ImportMetrics) IncError(stage string, err error) {
	if m == nil || err == nil {
		return
	}
	m.errors.WithLabelValues(stage, ClassifyImportReason(err)).Inc()
}

func (m *ImportMetrics) AddProcessed(stage string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.processed.WithLabelValues(stage).Add(float64(count))
}

func (m *ImportMetrics) MarkSuccess(at time.Time, buildings int64) {
	if m == nil {
		return
	}
	m.lastSuccess.Set(float64(at.Unix()))
	m.buildingsTotal.Set(float64(buildings))
}

// ClassifyImportReason maps an import failure to a metric label.
func ClassifyImportReason(err error) string {
	if err == nil {
		return ImportReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ImportReasonDeadlineExceeded
	}
	if errors.Is(err, ErrImportLockHeld) {
		return ImportReasonLockHeld
	}
	if isRegistryUnavailable(err) {
		return ImportReasonRegistryUnavailable
	}
	if hasPGCode(err, "55P03") {
		return ImportReasonDBLockTimeout
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || hasPGCode(err, "23505") {
		return ImportReasonUniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) || errors.Is(err, gorm.ErrInvalidDB) || errors.Is(err, gorm.ErrInvalidTransaction) {
		return ImportReasonDB
	}
	return ImportReasonUnknown
}

func isRegistryUnavailable(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unable to open database file") ||
		strings.Contains(msg, "no such table: building")
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
