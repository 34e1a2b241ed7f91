// Package ledger persists the table of submitted PHASTER jobs as a
// tab-separated file, one record per line:
//
//	filename<TAB>job_id<TAB>status<TAB>timestamp
//
// The format has no header row and no escaping; a status containing a tab
// would corrupt the record, which the remote service does not produce.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ternarybob/phaster/internal/models"
)

const fieldCount = 4

// MalformedRecordError reports a ledger line that does not split into
// exactly four tab-separated fields. This is fatal to the run: a damaged
// ledger should be repaired by hand, not silently rewritten.
type MalformedRecordError struct {
	Path   string
	Line   int
	Fields int
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record in %s line %d: expected %d tab-separated fields, got %d",
		e.Path, e.Line, fieldCount, e.Fields)
}

// Ledger is the in-memory mapping of job id to JobRecord. It is only ever
// accessed from the single control goroutine, so no locking is needed.
type Ledger struct {
	records map[string]models.JobRecord
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{records: make(map[string]models.JobRecord)}
}

// Load reads a ledger file into memory. A missing file is not an error: an
// empty file is created so a later Save has somewhere to write, and an empty
// ledger is returned.
func Load(path string) (*Ledger, error) {
	l := New()

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		created, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to create ledger file %s: %w", path, err)
		}
		created.Close()
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != fieldCount {
			return nil, &MalformedRecordError{Path: path, Line: lineNo, Fields: len(fields)}
		}
		l.Put(models.JobRecord{
			Filename:  fields[0],
			JobID:     fields[1],
			Status:    fields[2],
			CheckedAt: fields[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger file %s: %w", path, err)
	}

	return l, nil
}

// Save overwrites the ledger file, one line per record, in map iteration
// order. Record order across rewrites is not preserved and there is no
// atomic-write guarantee; a crash mid-write can corrupt the file.
func (l *Ledger) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write ledger file %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	for _, rec := range l.records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.Filename, rec.JobID, rec.Status, rec.CheckedAt)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write ledger file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write ledger file %s: %w", path, err)
	}

	return nil
}

// Get returns the record for a job id.
func (l *Ledger) Get(jobID string) (models.JobRecord, bool) {
	rec, ok := l.records[jobID]
	return rec, ok
}

// Put inserts or replaces the record under its job id.
func (l *Ledger) Put(rec models.JobRecord) {
	l.records[rec.JobID] = rec
}

// Len returns the number of tracked jobs.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Records returns a snapshot slice of all records, safe to iterate while
// records are updated through Put.
func (l *Ledger) Records() []models.JobRecord {
	out := make([]models.JobRecord, 0, len(l.records))
	for _, rec := range l.records {
		out = append(out, rec)
	}
	return out
}
