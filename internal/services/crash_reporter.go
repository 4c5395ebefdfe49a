package services

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"vitalog/internal/models"
)

// crashQueueSize bounds the in-flight report queue. Reports beyond the
// bound are dropped, never blocking the caller.
const crashQueueSize = 64

// maxBreadcrumbs bounds the breadcrumb ring attached to each report.
const maxBreadcrumbs = 30

// CrashReport is the payload delivered to the crash ingestion endpoint.
type CrashReport struct {
	Message     string            `json:"message"`
	Stack       string            `json:"stack,omitempty"`
	Fatal       bool              `json:"fatal"`
	UserID      string            `json:"userId,omitempty"`
	Context     map[string]string `json:"context,omitempty"`
	Breadcrumbs []string          `json:"breadcrumbs,omitempty"`
	ReportedAt  models.Timestamp  `json:"reportedAt"`
}

// CrashReporter captures errors and app events and ships them to the crash
// ingestion endpoint asynchronously. Capture never fails the caller: when
// the endpoint is unreachable, the queue is full, or delivery is
// rate-limited away, reports are dropped and counted.
type CrashReporter struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *Metrics
	logger     *slog.Logger

	mu          sync.Mutex
	userID      string
	breadcrumbs []string

	queue  chan CrashReport
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewCrashReporter creates a crash reporter delivering to endpoint. An
// empty endpoint disables delivery; capture still records breadcrumbs so
// enabling it later picks up context.
func NewCrashReporter(endpoint, apiKey string, metrics *Metrics, logger *slog.Logger) *CrashReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CrashReporter{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(1), 5), // 1 report/s, burst 5
		metrics:    metrics,
		logger:     logger,
		queue:      make(chan CrashReport, crashQueueSize),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start launches the delivery worker.
func (r *CrashReporter) Start() {
	go r.deliverLoop()
}

// Stop drains the worker. Queued reports not yet delivered are dropped.
func (r *CrashReporter) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

// SetUser attaches a user id to subsequent reports. Pass "" on sign-out.
func (r *CrashReporter) SetUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userID = userID
}

// AddBreadcrumb records an app event for context in later reports.
func (r *CrashReporter) AddBreadcrumb(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breadcrumbs = append(r.breadcrumbs, event)
	if len(r.breadcrumbs) > maxBreadcrumbs {
		r.breadcrumbs = r.breadcrumbs[len(r.breadcrumbs)-maxBreadcrumbs:]
	}
}

// RecordError captures a non-fatal error.
func (r *CrashReporter) RecordError(err error, context map[string]string) {
	if err == nil {
		return
	}
	r.enqueue(CrashReport{
		Message: err.Error(),
		Fatal:   false,
		Context: context,
	})
}

// RecordPanic captures a fatal error with its stack trace.
func (r *CrashReporter) RecordPanic(message, stack string) {
	r.enqueue(CrashReport{
		Message: message,
		Stack:   stack,
		Fatal:   true,
	})
}

func (r *CrashReporter) enqueue(report CrashReport) {
	r.mu.Lock()
	report.UserID = r.userID
	report.Breadcrumbs = append([]string(nil), r.breadcrumbs...)
	r.mu.Unlock()
	report.ReportedAt = models.NewTimestamp(time.Now())

	if r.endpoint == "" {
		return
	}

	select {
	case r.queue <- report:
	default:
		r.metricsDropped()
		r.logger.Warn("crash report queue full, report dropped")
	}
}

func (r *CrashReporter) deliverLoop() {
	defer close(r.doneCh)
	for {
		select {
		case <-r.stopCh:
			return
		case report := <-r.queue:
			if err := r.limiter.Wait(context.Background()); err != nil {
				return
			}
			r.deliver(report)
		}
	}
}

func (r *CrashReporter) deliver(report CrashReport) {
	payload, err := json.Marshal(report)
	if err != nil {
		r.metricsDropped()
		return
	}

	req, err := http.NewRequest("POST", r.endpoint, bytes.NewReader(payload))
	if err != nil {
		r.metricsDropped()
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.metricsDropped()
		r.logger.Warn("crash report delivery failed", "error", err)
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if r.metrics != nil {
			r.metrics.CrashReportsSent.Inc()
		}
		return
	}
	r.metricsDropped()
	r.logger.Warn("crash report rejected", "status", resp.StatusCode)
}

func (r *CrashReporter) metricsDropped() {
	if r.metrics != nil {
		r.metrics.CrashReportsDropped.Inc()
	}
}
