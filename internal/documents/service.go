package documents

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docmanager-backend/internal/shared/storage/object"
	"docmanager-backend/internal/shared/util"
)

const presignExpires = 15 * time.Minute

var contentTypeByExt = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ScanDispatcher schedules an asynchronous content scan for a document.
// The call must not block on the scan itself.
type ScanDispatcher interface {
	Enqueue(ctx context.Context, documentID string)
}

// Service contains business logic for documents.
type Service struct {
	Repo           Repo
	Store          object.ObjectStore
	Scans          ScanDispatcher
	MaxUploadBytes int64
}

// UploadInput carries everything needed to create a document.
type UploadInput struct {
	FileName       string
	Title          string
	Description    string
	AllowedReaders []string
	SizeBytes      int64
	Body           io.Reader
}

// UpdateInput carries the mutable display metadata and allow-list.
type UpdateInput struct {
	Title          string
	Description    string
	AllowedReaders []string
}

// Upload validates the input, persists the blob and the registry record,
// and dispatches the content scan. Validation failures leave no record and
// no blob behind.
func (s *Service) Upload(ctx context.Context, actor Actor, in UploadInput) (Document, error) {
	if in.FileName == "" || in.Body == nil || in.SizeBytes <= 0 {
		return Document{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	if s.MaxUploadBytes > 0 && in.SizeBytes > s.MaxUploadBytes {
		return Document{}, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.MaxUploadBytes)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Document{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	ext := strings.ToLower(filepath.Ext(in.FileName))
	contentType, ok := contentTypeByExt[ext]
	if !ok {
		return Document{}, fmt.Errorf("%w: only PDF or DOCX files are accepted", ErrInvalidInput)
	}
	fileName, err := util.SanitizeFileName(in.FileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// Object keys are never reused: a fresh random token per upload keeps
	// deleted blobs from aliasing later ones.
	objectKey := uuid.NewString() + "-" + fileName

	if err := s.Store.Put(ctx, objectKey, in.Body, in.SizeBytes, contentType); err != nil {
		return Document{}, fmt.Errorf("store file: %w", err)
	}

	doc := Document{
		ID:             uuid.NewString(),
		ObjectKey:      objectKey,
		FileName:       fileName,
		Title:          title,
		Description:    strings.TrimSpace(in.Description),
		SizeBytes:      in.SizeBytes,
		Owner:          actor.ID,
		UploadedAt:     time.Now().UTC(),
		AllowedReaders: normalizeReaders(actor.ID, in.AllowedReaders),
		Status:         StatusUploaded,
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		// Don't leave an unreferenced blob behind.
		_ = s.Store.Delete(ctx, objectKey)
		return Document{}, fmt.Errorf("create document: %w", err)
	}

	if s.Scans != nil {
		s.Scans.Enqueue(ctx, doc.ID)
	}
	return doc, nil
}

// Get returns a document if the actor may read it. A missing record
// reports not-found before any authorization check.
func (s *Service) Get(ctx context.Context, actor Actor, id string) (Document, error) {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if !CanRead(actor, doc) {
		return Document{}, ErrForbidden
	}
	return doc, nil
}

// Update replaces title, description and allow-list. Owner or admin only.
func (s *Service) Update(ctx context.Context, actor Actor, id string, in UpdateInput) (Document, error) {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if !CanWrite(actor, doc) {
		return Document{}, ErrForbidden
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Document{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	doc.Title = title
	doc.Description = strings.TrimSpace(in.Description)
	doc.AllowedReaders = normalizeReaders(doc.Owner, in.AllowedReaders)

	if err := s.Repo.Update(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Delete removes the blob and then the registry record. If the blob
// cannot be deleted the record is left intact so the delete can be
// retried; a record pointing at a live blob beats an orphaned blob.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanWrite(actor, doc) {
		return ErrForbidden
	}
	if err := s.Store.Delete(ctx, doc.ObjectKey); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return s.Repo.Delete(ctx, id)
}

// Download opens the blob for reading and reports its stored content type.
func (s *Service) Download(ctx context.Context, actor Actor, id string) (Document, io.ReadCloser, string, error) {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Document{}, nil, "", err
	}
	if !CanRead(actor, doc) {
		return Document{}, nil, "", ErrForbidden
	}

	contentType := "application/octet-stream"
	if info, err := s.Store.Stat(ctx, doc.ObjectKey); err == nil && info.ContentType != "" {
		contentType = info.ContentType
	}

	body, err := s.Store.Open(ctx, doc.ObjectKey)
	if err != nil {
		return Document{}, nil, "", fmt.Errorf("open blob: %w", err)
	}
	return doc, body, contentType, nil
}

// PresignDownload returns a temporary direct download URL when the
// configured store supports it.
func (s *Service) PresignDownload(ctx context.Context, actor Actor, id string) (string, error) {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !CanRead(actor, doc) {
		return "", ErrForbidden
	}
	presigner, ok := s.Store.(object.Presigner)
	if !ok {
		return "", ErrPresignUnavailable
	}
	return presigner.PresignGet(ctx, doc.ObjectKey, presignExpires)
}

// List returns documents owned by or shared with the actor, newest first.
func (s *Service) List(ctx context.Context, actor Actor, limit, offset int) ([]Document, error) {
	if actor.ID == "" {
		return nil, fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}
	return s.Repo.ListReadable(ctx, actor.ID, limit, offset)
}

// normalizeReaders trims, dedupes, and drops the owner: the owner is
// always implicitly a reader and never stored on the allow-list.
func normalizeReaders(owner string, readers []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(readers))
	for _, reader := range readers {
		trimmed := strings.TrimSpace(reader)
		if trimmed == "" || trimmed == owner {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
