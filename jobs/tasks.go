package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/salesdesk-io/salesdesk/internal/quotes"
	"github.com/salesdesk-io/salesdesk/internal/shared"
	"github.com/salesdesk-io/salesdesk/report"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeQuotePDF renders a quotation as a PDF document.
	TaskTypeQuotePDF = "quote:pdf"
	// TaskTypeIdempotencyCleanup prunes expired idempotency keys.
	TaskTypeIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// QuotePDFPayload identifies the quotation to render.
type QuotePDFPayload struct {
	QuotationID int64 `json:"quotation_id"`
}

// NewQuotePDFTask constructs an Asynq task for quotation rendering.
func NewQuotePDFTask(payload QuotePDFPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeQuotePDF, data), nil
}

// QuotePDFJob renders quotation PDFs into the configured output directory.
type QuotePDFJob struct {
	service  *quotes.Service
	renderer *report.Renderer
	outDir   string
	logger   *slog.Logger
}

// NewQuotePDFJob constructs the render job.
func NewQuotePDFJob(service *quotes.Service, renderer *report.Renderer, outDir string, logger *slog.Logger) *QuotePDFJob {
	return &QuotePDFJob{service: service, renderer: renderer, outDir: outDir, logger: logger}
}

// Handle processes TaskTypeQuotePDF tasks.
func (j *QuotePDFJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload QuotePDFPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	q, err := j.service.Get(ctx, payload.QuotationID)
	if err != nil {
		// A vanished quotation will not reappear on retry.
		j.logger.Warn("quote pdf: load quotation", slog.Int64("id", payload.QuotationID), slog.Any("error", err))
		return asynq.SkipRetry
	}

	data, err := j.renderer.RenderQuotation(q)
	if err != nil {
		return fmt.Errorf("quote pdf: render %d: %w", q.Correlative, err)
	}

	if err := os.MkdirAll(j.outDir, 0o755); err != nil {
		return fmt.Errorf("quote pdf: ensure output dir: %w", err)
	}
	path := filepath.Join(j.outDir, fmt.Sprintf("quotation-%d.pdf", q.Correlative))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("quote pdf: write %s: %w", path, err)
	}

	j.logger.Info("quote pdf rendered",
		slog.Int64("quotation_id", q.ID),
		slog.Int64("correlative", q.Correlative),
		slog.String("path", path),
	)
	return nil
}

// IdempotencyCleanupJob removes stale idempotency keys on a schedule.
type IdempotencyCleanupJob struct {
	store     *shared.IdempotencyStore
	retention time.Duration
	logger    *slog.Logger
}

// NewIdempotencyCleanupJob constructs the cleanup job.
func NewIdempotencyCleanupJob(store *shared.IdempotencyStore, retention time.Duration, logger *slog.Logger) *IdempotencyCleanupJob {
	if retention <= 0 {
		retention = 72 * time.Hour
	}
	return &IdempotencyCleanupJob{store: store, retention: retention, logger: logger}
}

// NewIdempotencyCleanupTask constructs the cron task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeIdempotencyCleanup, nil)
}

// Handle processes TaskTypeIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if err := j.store.Cleanup(ctx, j.retention); err != nil {
		return fmt.Errorf("idempotency cleanup: %w", err)
	}
	j.logger.Info("idempotency keys pruned", slog.Duration("retention", j.retention))
	return nil
}
