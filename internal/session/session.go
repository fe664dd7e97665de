// Package session holds the state of one user's upload flow: the selected
// file, the prediction for it, the display state and the report action.
//
// A file selection replaces the file, drops the prediction and advances the
// sequence token in one step, so a prediction can never be paired with a
// file from another upload cycle.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/example/pawprint/internal/predictor"
)

// State is the display state of the upload flow.
type State int

const (
	Idle State = iota
	Loading
	Result
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Result:
		return "result"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Ticket identifies one submission. Responses carrying a stale ticket are discarded.
type Ticket struct {
	Seq      uint64
	UploadID string
}

// Snapshot is an immutable copy of the session used for rendering.
type Snapshot struct {
	State         State
	UploadID      string
	FileName      string
	Prediction    *predictor.Prediction
	ErrorMessage  string
	ReportPending bool
}

// Session is safe for concurrent use.
type Session struct {
	mu            sync.Mutex
	seq           uint64
	uploadID      string
	file          *predictor.UploadedFile
	prediction    *predictor.Prediction
	state         State
	errorMessage  string
	reportPending bool
}

// New returns an idle session.
func New() *Session {
	return &Session{}
}

// Begin starts a new upload cycle for file and moves the display to Loading.
func (s *Session) Begin(file predictor.UploadedFile) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.uploadID = uuid.NewString()
	s.file = &file
	s.prediction = nil
	s.errorMessage = ""
	s.state = Loading
	return Ticket{Seq: s.seq, UploadID: s.uploadID}
}

// Resolve stores the prediction for t and moves the display to Result.
// It returns false, leaving the session untouched, when t has been superseded.
func (s *Session) Resolve(t Ticket, p predictor.Prediction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Seq != s.seq {
		return false
	}
	s.prediction = &p
	s.errorMessage = ""
	s.state = Result
	return true
}

// Fail moves the display to Error with message unless t has been superseded.
func (s *Session) Fail(t Ticket, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Seq != s.seq {
		return false
	}
	s.prediction = nil
	s.errorMessage = message
	s.state = Error
	return true
}

// ReportRequest builds the request for the current upload cycle.
func (s *Session) ReportRequest() (predictor.ReportRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil || s.prediction == nil {
		return predictor.ReportRequest{}, predictor.ErrNoUpload
	}
	return predictor.ReportRequest{
		UploadID:   s.uploadID,
		Breed:      s.prediction.Breed,
		Confidence: s.prediction.Confidence,
		File:       *s.file,
	}, nil
}

// AcquireReport disables the report action. The returned release re-enables it
// and must be called exactly once. ok is false when a report is already pending.
func (s *Session) AcquireReport() (release func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reportPending {
		return nil, false
	}
	s.reportPending = true

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.reportPending = false
			s.mu.Unlock()
		})
	}, true
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:         s.state,
		UploadID:      s.uploadID,
		ErrorMessage:  s.errorMessage,
		ReportPending: s.reportPending,
	}
	if s.file != nil {
		snap.FileName = s.file.Name
	}
	if s.prediction != nil {
		p := *s.prediction
		snap.Prediction = &p
	}
	return snap
}
