package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"docmanager-backend/internal/documents"
	"docmanager-backend/internal/extract"
	"docmanager-backend/internal/queue"
	"docmanager-backend/internal/shared/metrics"
	"docmanager-backend/internal/shared/storage/object"
	"docmanager-backend/internal/shared/telemetry"
)

// Service runs the content scan for uploaded documents: mark SCANNING,
// extract text, run the detectors, persist the terminal status. Every
// failure on the way is absorbed into the ERROR state; Scan never returns
// an error to the trigger.
type Service struct {
	Repo  documents.Repo
	Store object.ObjectStore
	Queue queue.Client

	locks sync.Map // document id -> *sync.Mutex
}

// Enqueue schedules a scan. With a queue configured the job is handed to
// SQS and a worker picks it up; otherwise a goroutine runs it in-process.
func (s *Service) Enqueue(ctx context.Context, documentID string) {
	if s.Queue != nil {
		msg := queue.Message{
			DocumentID: documentID,
			RequestID:  telemetry.RequestIDFromContext(ctx),
			EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
			Version:    1,
		}
		err := s.Queue.Send(ctx, msg)
		if err == nil {
			telemetry.Info("scan.enqueued", map[string]any{
				"request_id":  msg.RequestID,
				"document_id": documentID,
				"transport":   "sqs",
			})
			return
		}
		telemetry.Error("scan.enqueue_failed", map[string]any{
			"request_id":  msg.RequestID,
			"document_id": documentID,
			"error":       err.Error(),
		})
		// fall through to in-process execution so the document does not
		// sit in UPLOADED forever
	}
	go s.Scan(telemetry.BackgroundWithRequestID(ctx), documentID)
}

// Scan executes the full pipeline for one document. Concurrent scans of
// the same document serialize on a per-document mutex; a record that no
// longer exists is a silent no-op (deleted between trigger and execution).
func (s *Service) Scan(ctx context.Context, documentID string) {
	mu := s.lockFor(documentID)
	mu.Lock()
	defer mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.failScan(ctx, documentID, fmt.Errorf("panic: %v", r), nil)
		}
	}()

	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return
		}
		s.failScan(ctx, documentID, fmt.Errorf("document lookup: %w", err), nil)
		return
	}

	startedAt := time.Now().UTC()
	from := doc.Status
	if err := doc.AdvanceToScanning(); err != nil {
		s.failScan(ctx, documentID, fmt.Errorf("advance to scanning: %w", err), &startedAt)
		return
	}
	if err := s.Repo.Update(ctx, doc); err != nil {
		s.failScan(ctx, documentID, fmt.Errorf("persist scanning: %w", err), &startedAt)
		return
	}
	metrics.IncScanStarted()
	telemetry.Info("scan.status", map[string]any{
		"request_id":        telemetry.RequestIDFromContext(ctx),
		"document_id":       doc.ID,
		"owner":             doc.Owner,
		"status":            documents.StatusScanning,
		"status_transition": string(from) + "->" + string(documents.StatusScanning),
	})

	if s.Store == nil {
		s.failScan(ctx, documentID, errors.New("missing object store dependency"), &startedAt)
		return
	}

	rc, err := s.Store.Open(ctx, doc.ObjectKey)
	if err != nil {
		s.failScan(ctx, documentID, fmt.Errorf("open blob key=%s: %w", doc.ObjectKey, err), &startedAt)
		return
	}
	data, err := readAll(rc)
	if err != nil {
		s.failScan(ctx, documentID, fmt.Errorf("read blob key=%s: %w", doc.ObjectKey, err), &startedAt)
		return
	}

	text, err := extract.Text(data, doc.FileName)
	if err != nil {
		s.failScan(ctx, documentID, fmt.Errorf("extract text file=%s: %w", doc.FileName, err), &startedAt)
		return
	}

	findings := FindSensitiveData(text)
	if err := doc.CompleteScan(findings); err != nil {
		s.failScan(ctx, documentID, fmt.Errorf("complete scan: %w", err), &startedAt)
		return
	}
	if err := s.Repo.Update(ctx, doc); err != nil {
		s.failScan(ctx, documentID, fmt.Errorf("persist terminal status: %w", err), &startedAt)
		return
	}

	completedAt := time.Now().UTC()
	if doc.Status == documents.StatusFlagged {
		metrics.IncScanFlagged()
	} else {
		metrics.IncScanClean()
	}
	metrics.ObserveScanDurationMs(float64(completedAt.Sub(startedAt).Milliseconds()))
	telemetry.Info("scan.status", map[string]any{
		"request_id":        telemetry.RequestIDFromContext(ctx),
		"document_id":       doc.ID,
		"owner":             doc.Owner,
		"status":            doc.Status,
		"status_transition": string(documents.StatusScanning) + "->" + string(doc.Status),
		"findings_count":    len(findings),
		"duration_ms":       completedAt.Sub(startedAt).Milliseconds(),
	})
}

// failScan stamps the record ERROR (best effort, on a fresh context so a
// cancelled trigger cannot block the terminal write) and records the
// failure in telemetry and metrics.
func (s *Service) failScan(ctx context.Context, documentID string, cause error, startedAt *time.Time) {
	completedAt := time.Now().UTC()
	doc, err := s.Repo.GetByID(context.Background(), documentID)
	if err == nil {
		if markErr := doc.MarkError(); markErr == nil {
			if updateErr := s.Repo.Update(context.Background(), doc); updateErr != nil {
				telemetry.Error("scan.error_persist_failed", map[string]any{
					"document_id": documentID,
					"error":       updateErr.Error(),
				})
			}
		}
	}
	metrics.IncScanFailed()
	if startedAt != nil {
		metrics.ObserveScanDurationMs(float64(completedAt.Sub(*startedAt).Milliseconds()))
	}
	telemetry.Info("scan.status", map[string]any{
		"request_id":        telemetry.RequestIDFromContext(ctx),
		"document_id":       documentID,
		"status":            documents.StatusError,
		"status_transition": string(documents.StatusScanning) + "->" + string(documents.StatusError),
		"error":             cause.Error(),
	})
}

func (s *Service) lockFor(documentID string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(documentID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func readAll(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ documents.ScanDispatcher = (*Service)(nil)
