package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinderbasar/backend/internal/labels"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/pkg/queue"
	"github.com/kinderbasar/backend/pkg/storage"
)

// ExportStore is the part of the label repository the processor needs.
type ExportStore interface {
	Sheet(ctx context.Context, sellerID uuid.UUID) (*labels.Sheet, error)
	GetExport(ctx context.Context, id uuid.UUID) (*models.LabelExport, error)
	CompleteExport(ctx context.Context, id uuid.UUID, key string) error
	FailExport(ctx context.Context, id uuid.UUID, msg string) error
}

// Uploader stores rendered sheets.
type Uploader interface {
	UploadLabelSheet(ctx context.Context, key string, body io.Reader) error
}

// JobQueue is the job source of the processor.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) (bool, error)
}

// LabelExportProcessor renders label sheets and uploads them to S3.
type LabelExportProcessor struct {
	store   ExportStore
	storage Uploader
	queue   JobQueue
	backoff time.Duration
	logger  *zap.Logger
}

// NewLabelExportProcessor creates a label export processor.
func NewLabelExportProcessor(store ExportStore, up Uploader, q JobQueue, logger *zap.Logger) *LabelExportProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LabelExportProcessor{store: store, storage: up, queue: q, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one label export job.
func (p *LabelExportProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeLabelExport {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.LabelExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	exp, err := p.store.GetExport(ctx, payload.ExportID)
	if err != nil {
		return fmt.Errorf("load export %s: %w", payload.ExportID, err)
	}
	if exp.Status == models.LabelExportCompleted {
		p.logger.Info("label export already completed", zap.String("export_id", exp.ID.String()))
		return nil
	}

	sheet, err := p.store.Sheet(ctx, payload.SellerID)
	if err != nil {
		return fmt.Errorf("build sheet: %w", err)
	}
	body, err := sheet.Render()
	if err != nil {
		return err
	}
	key := storage.LabelSheetKey(payload.EventID.String(), sheet.SellerNumber, payload.ExportID.String())
	if err := p.storage.UploadLabelSheet(ctx, key, bytes.NewReader(body)); err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}
	if err := p.store.CompleteExport(ctx, payload.ExportID, key); err != nil {
		return fmt.Errorf("update export: %w", err)
	}
	p.logger.Info("label export completed",
		zap.String("export_id", payload.ExportID.String()),
		zap.Int("labels", len(sheet.Labels)),
		zap.String("s3_key", key))
	return nil
}

// Handle processes a job and schedules a retry on failure. Jobs that exhaust their
// retries are dead-lettered and their export is marked failed.
func (p *LabelExportProcessor) Handle(ctx context.Context, job *queue.Job) {
	p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	err := p.Process(ctx, job)
	if err == nil {
		return
	}
	p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
	dead, reErr := p.queue.Retry(ctx, job)
	if reErr != nil {
		p.logger.Error("retry enqueue failed", zap.String("job_id", job.ID), zap.Error(reErr))
		return
	}
	if !dead {
		return
	}
	var payload queue.LabelExportPayload
	if json.Unmarshal(job.Payload, &payload) == nil && payload.ExportID != uuid.Nil {
		if fErr := p.store.FailExport(ctx, payload.ExportID, err.Error()); fErr != nil {
			p.logger.Error("mark export failed", zap.String("export_id", payload.ExportID.String()), zap.Error(fErr))
		}
	}
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *LabelExportProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("label export worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			sleep(ctx, p.backoff)
			continue
		}
		if job == nil {
			continue
		}
		p.Handle(ctx, job)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
