package documents

import (
	"fmt"
	"time"
)

// Status is a document's lifecycle state. It only ever advances forward:
// UPLOADED -> SCANNING -> SCANNED | FLAGGED | ERROR.
type Status string

const (
	StatusUploaded Status = "UPLOADED"
	StatusScanning Status = "SCANNING"
	StatusScanned  Status = "SCANNED"
	StatusFlagged  Status = "FLAGGED"
	StatusError    Status = "ERROR"
)

// Terminal reports whether no further transition can occur from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusScanned, StatusFlagged, StatusError:
		return true
	}
	return false
}

// Document is the registry record for an uploaded file.
type Document struct {
	ID             string
	ObjectKey      string
	FileName       string
	Title          string
	Description    string
	SizeBytes      int64
	Owner          string
	UploadedAt     time.Time
	AllowedReaders []string
	Status         Status
	Findings       []string
}

// AdvanceToScanning moves a freshly uploaded document into SCANNING.
func (d *Document) AdvanceToScanning() error {
	if d.Status != StatusUploaded {
		return fmt.Errorf("cannot start scan from status %s", d.Status)
	}
	d.Status = StatusScanning
	return nil
}

// CompleteScan records the scan outcome: FLAGGED with the given findings
// when any were produced, SCANNED otherwise. Findings are attached only
// on the FLAGGED path so that findings are non-empty iff status is FLAGGED.
func (d *Document) CompleteScan(findings []string) error {
	if d.Status != StatusScanning {
		return fmt.Errorf("cannot complete scan from status %s", d.Status)
	}
	if len(findings) > 0 {
		d.Status = StatusFlagged
		d.Findings = append([]string(nil), findings...)
	} else {
		d.Status = StatusScanned
		d.Findings = nil
	}
	return nil
}

// MarkError moves a scanning document into the terminal ERROR state.
// The cause is not recorded on the document.
func (d *Document) MarkError() error {
	if d.Status != StatusScanning {
		return fmt.Errorf("cannot mark error from status %s", d.Status)
	}
	d.Status = StatusError
	d.Findings = nil
	return nil
}

func (d Document) clone() Document {
	out := d
	out.AllowedReaders = append([]string(nil), d.AllowedReaders...)
	out.Findings = append([]string(nil), d.Findings...)
	return out
}
