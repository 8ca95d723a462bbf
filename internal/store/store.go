package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	requestFile   = "request.json"
	responseFile  = "response.json"
	statusFile    = "status.json"
	countdownFile = "countdown.json"
)

// Store reads and writes the shared bridge records under a single directory.
// It is safe for concurrent use; all record mutation is serialized by an
// internal mutex, and every write lands via temp-file-then-rename so other
// processes never see partial documents.
type Store struct {
	dir string
	mu  sync.Mutex
}

// DefaultDir returns the conventional bridge directory under the system
// temp directory.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), "inputbridge")
}

// New creates a Store rooted at dir. The directory is created lazily on
// first write.
func New(dir string) *Store {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Store{dir: dir}
}

// Dir returns the directory backing this store.
func (s *Store) Dir() string { return s.dir }

// PublishRequest writes the single-slot request record for id, superseding
// any prior pending request.
func (s *Store) PublishRequest(id string) error {
	if id == "" {
		return fmt.Errorf("store: request id is required")
	}
	req := Request{
		ID:        id,
		CreatedAt: time.Now(),
		State:     RequestWaiting,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeRecord(requestFile, req)
}

// Request returns the pending request record, if one exists.
// A missing or malformed record reads as absent.
func (s *Store) Request() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var req Request
	if !s.readRecord(requestFile, &req) || req.ID == "" {
		return Request{}, false
	}
	return req, true
}

// PublishResponse writes the response record. It does not check whether a
// matching request is still pending; correlation is enforced on the
// consuming side. A zero CreatedAt is stamped with the current time.
func (s *Store) PublishResponse(resp Response) error {
	if resp.RequestID == "" {
		return fmt.Errorf("store: response request_id is required")
	}
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeRecord(responseFile, resp)
}

// ConsumeResponse atomically reads and deletes the response record if its
// request_id matches. A response correlated to a different request is left
// untouched: it belongs to another, presumably stale, cycle.
func (s *Store) ConsumeResponse(requestID string) (Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var resp Response
	if !s.readRecord(responseFile, &resp) {
		return Response{}, false
	}
	if resp.RequestID != requestID {
		return Response{}, false
	}
	if err := os.Remove(filepath.Join(s.dir, responseFile)); err != nil && !os.IsNotExist(err) {
		// The record could not be deleted; report it as absent so the
		// caller retries on the next poll rather than double-consuming.
		return Response{}, false
	}
	return resp, true
}

// PeekResponse returns the current response record without consuming it.
func (s *Store) PeekResponse() (Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var resp Response
	if !s.readRecord(responseFile, &resp) || resp.RequestID == "" {
		return Response{}, false
	}
	return resp, true
}

// SetStatus overwrites the advisory status record. UpdatedAt is stamped
// with the current time. Status is best-effort: callers typically ignore
// the returned error beyond logging it.
func (s *Store) SetStatus(status Status) error {
	status.UpdatedAt = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeRecord(statusFile, status)
}

// ReadStatus returns the advisory status record. A missing or malformed
// record reads as idle.
func (s *Store) ReadStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	var status Status
	if !s.readRecord(statusFile, &status) || status.State == "" {
		return Status{State: StateIdle}
	}
	return status
}

// WriteCountdown records that a keep-alive grace period of d starts now.
func (s *Store) WriteCountdown(d time.Duration) error {
	cd := Countdown{
		StartTime:      time.Now(),
		TimeoutSeconds: d.Seconds(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeRecord(countdownFile, cd)
}

// ReadCountdown returns the raw countdown record, if present.
// Monitors use it to render both the remaining and the total time.
func (s *Store) ReadCountdown() (Countdown, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cd Countdown
	if !s.readRecord(countdownFile, &cd) || cd.StartTime.IsZero() {
		return Countdown{}, false
	}
	return cd, true
}

// CountdownRemaining reports how much of the recorded grace period is left.
// An expired record is removed and reads as absent.
func (s *Store) CountdownRemaining() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cd Countdown
	if !s.readRecord(countdownFile, &cd) || cd.StartTime.IsZero() {
		return 0, false
	}
	remaining := time.Duration(cd.TimeoutSeconds*float64(time.Second)) - time.Since(cd.StartTime)
	if remaining <= 0 {
		_ = os.Remove(filepath.Join(s.dir, countdownFile))
		return 0, false
	}
	return remaining, true
}

// ClearCountdown removes the countdown record. Safe when none exists.
func (s *Store) ClearCountdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeRecord(countdownFile)
}

// Teardown removes all bridge records unconditionally. It is safe to call
// when none exist. The first deletion failure is returned after attempting
// the remaining records.
func (s *Store) Teardown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, name := range []string{requestFile, responseFile, statusFile, countdownFile} {
		if err := s.removeRecord(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// writeRecord marshals v and atomically replaces the named record.
// Callers must hold s.mu.
func (s *Store) writeRecord(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("store: create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: close %s: %w", name, err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: publish %s: %w", name, err)
	}
	return nil
}

// readRecord unmarshals the named record into v. Any failure (missing file,
// half-written or malformed JSON) reads as absent. Callers must hold s.mu.
func (s *Store) readRecord(name string, v any) bool {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// removeRecord deletes the named record, treating "already gone" as success.
// Callers must hold s.mu.
func (s *Store) removeRecord(name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: remove %s: %w", name, err)
	}
	return nil
}
