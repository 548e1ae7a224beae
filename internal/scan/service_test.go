package scan

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"docmanager-backend/internal/documents"
	"docmanager-backend/internal/queue"
	"docmanager-backend/internal/shared/storage/object"
)

type memStore struct {
	objects map[string][]byte
	openErr error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *memStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *memStore) Stat(ctx context.Context, key string) (object.ObjectInfo, error) {
	data, ok := s.objects[key]
	if !ok {
		return object.ObjectInfo{}, errors.New("object not found")
	}
	return object.ObjectInfo{SizeBytes: int64(len(data))}, nil
}

func buildDOCX(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}
	doc := `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func seedDocument(t *testing.T, repo documents.Repo, store *memStore, id, fileName string, blob []byte) {
	t.Helper()
	key := id + "-" + fileName
	store.objects[key] = blob
	doc := documents.Document{
		ID:         id,
		ObjectKey:  key,
		FileName:   fileName,
		Title:      "t",
		SizeBytes:  int64(len(blob)),
		Owner:      "user-1",
		UploadedAt: time.Now().UTC(),
		Status:     documents.StatusUploaded,
	}
	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}
}

func TestScanFlagsDocumentWithFindings(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newMemStore()
	svc := &Service{Repo: repo, Store: store}

	seedDocument(t, repo, store, "doc-1", "contacts.docx",
		buildDOCX(t, "Contact: a@b.com or x@y.org, CMND 123456789, STK: 0123-4567-8901"))

	svc.Scan(context.Background(), "doc-1")

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.Status != documents.StatusFlagged {
		t.Fatalf("status = %s, want FLAGGED", doc.Status)
	}
	want := []string{"EMAIL:a@b.com", "EMAIL:x@y.org", "CMND:123456789", "BANK:0123-4567-8901"}
	if len(doc.Findings) != len(want) {
		t.Fatalf("findings = %v, want %v", doc.Findings, want)
	}
	for i := range want {
		if doc.Findings[i] != want[i] {
			t.Fatalf("findings = %v, want %v", doc.Findings, want)
		}
	}
}

func TestScanMarksCleanDocumentScanned(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newMemStore()
	svc := &Service{Repo: repo, Store: store}

	seedDocument(t, repo, store, "doc-1", "clean.docx", buildDOCX(t, "nothing sensitive here"))

	svc.Scan(context.Background(), "doc-1")

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.Status != documents.StatusScanned {
		t.Fatalf("status = %s, want SCANNED", doc.Status)
	}
	if len(doc.Findings) != 0 {
		t.Fatalf("clean document must have no findings, got %v", doc.Findings)
	}
}

func TestScanMissingDocumentIsNoOp(t *testing.T) {
	repo := documents.NewMemoryRepo()
	svc := &Service{Repo: repo, Store: newMemStore()}

	// Deleted between trigger and execution; nothing to do, nothing to fail.
	svc.Scan(context.Background(), "gone")
}

func TestScanCorruptBlobEndsInError(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newMemStore()
	svc := &Service{Repo: repo, Store: store}

	seedDocument(t, repo, store, "doc-1", "broken.docx", []byte("not a zip"))

	svc.Scan(context.Background(), "doc-1")

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.Status != documents.StatusError {
		t.Fatalf("status = %s, want ERROR", doc.Status)
	}
	if doc.Findings != nil {
		t.Fatalf("findings must be empty on ERROR, got %v", doc.Findings)
	}
}

func TestScanBlobOpenFailureEndsInError(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newMemStore()
	svc := &Service{Repo: repo, Store: store}

	seedDocument(t, repo, store, "doc-1", "a.docx", buildDOCX(t, "x"))
	store.openErr = errors.New("backend down")

	svc.Scan(context.Background(), "doc-1")

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.Status != documents.StatusError {
		t.Fatalf("status = %s, want ERROR", doc.Status)
	}
}

func TestScanUnsupportedFileNameEndsInError(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newMemStore()
	svc := &Service{Repo: repo, Store: store}

	seedDocument(t, repo, store, "doc-1", "notes.txt", []byte("plain"))

	svc.Scan(context.Background(), "doc-1")

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.Status != documents.StatusError {
		t.Fatalf("status = %s, want ERROR", doc.Status)
	}
}

func TestScanDuplicateTriggerLeavesTerminalState(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newMemStore()
	svc := &Service{Repo: repo, Store: store}

	seedDocument(t, repo, store, "doc-1", "clean.docx", buildDOCX(t, "hello"))

	svc.Scan(context.Background(), "doc-1")
	svc.Scan(context.Background(), "doc-1")

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.Status != documents.StatusScanned {
		t.Fatalf("status = %s, want SCANNED after duplicate trigger", doc.Status)
	}
}

func TestEnqueueWithoutQueueRunsInProcess(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newMemStore()
	svc := &Service{Repo: repo, Store: store}

	seedDocument(t, repo, store, "doc-1", "contacts.docx", buildDOCX(t, "mail me at a@b.com"))

	svc.Enqueue(context.Background(), "doc-1")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		doc, err := repo.GetByID(context.Background(), "doc-1")
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if doc.Status.Terminal() {
			if doc.Status != documents.StatusFlagged {
				t.Fatalf("status = %s, want FLAGGED", doc.Status)
			}
			if len(doc.Findings) != 1 || !strings.HasPrefix(doc.Findings[0], "EMAIL:") {
				t.Fatalf("findings = %v", doc.Findings)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("scan did not reach a terminal state in time")
}

type capturingQueue struct {
	messages []queue.Message
	err      error
}

func (q *capturingQueue) Send(ctx context.Context, msg queue.Message) error {
	if q.err != nil {
		return q.err
	}
	q.messages = append(q.messages, msg)
	return nil
}

func TestEnqueueWithQueueSendsMessage(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newMemStore()
	q := &capturingQueue{}
	svc := &Service{Repo: repo, Store: store, Queue: q}

	seedDocument(t, repo, store, "doc-1", "a.docx", buildDOCX(t, "x"))

	svc.Enqueue(context.Background(), "doc-1")

	if len(q.messages) != 1 || q.messages[0].DocumentID != "doc-1" {
		t.Fatalf("messages = %+v", q.messages)
	}
	// Delivery is the worker's job; the document stays UPLOADED here.
	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.Status != documents.StatusUploaded {
		t.Fatalf("status = %s, want UPLOADED", doc.Status)
	}
}

func TestEnqueueFallsBackWhenQueueFails(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newMemStore()
	q := &capturingQueue{err: errors.New("sqs down")}
	svc := &Service{Repo: repo, Store: store, Queue: q}

	seedDocument(t, repo, store, "doc-1", "clean.docx", buildDOCX(t, "hello"))

	svc.Enqueue(context.Background(), "doc-1")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		doc, err := repo.GetByID(context.Background(), "doc-1")
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if doc.Status.Terminal() {
			if doc.Status != documents.StatusScanned {
				t.Fatalf("status = %s, want SCANNED", doc.Status)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("fallback scan did not reach a terminal state in time")
}
