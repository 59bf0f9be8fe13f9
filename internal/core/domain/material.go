package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaterialStatus is the lifecycle state of a material's pipeline run.
type MaterialStatus string

// Material lifecycle states.
const (
	// StatusCreated means the record exists and the artifact set is durable.
	StatusCreated MaterialStatus = "created"

	// StatusProcessing means a pipeline run is in progress.
	StatusProcessing MaterialStatus = "processing"

	// StatusCompleted means every mandatory stage succeeded. Terminal.
	StatusCompleted MaterialStatus = "completed"

	// StatusFailed means a stage or gate failed and artifacts were cleaned up. Terminal.
	StatusFailed MaterialStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s MaterialStatus) IsValid() bool {
	switch s {
	case StatusCreated, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for completed and failed.
func (s MaterialStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether a run may move from s to next.
func (s MaterialStatus) CanTransition(next MaterialStatus) bool {
	switch s {
	case StatusCreated:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// String returns the string representation.
func (s MaterialStatus) String() string {
	return string(s)
}

// ParseStatus parses a status name, case-insensitively.
func ParseStatus(raw string) (MaterialStatus, error) {
	s := MaterialStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInput, raw)
	}
	return s, nil
}

// Subject is the course namespace a material is filed under.
type Subject string

// Subjects offered by the upload form.
const (
	SubjectPython Subject = "python"
	SubjectJava   Subject = "java"
	SubjectCPP    Subject = "cpp"
	SubjectC      Subject = "c"
	SubjectMixed  Subject = "mixed"
)

// Subjects returns every accepted subject in display order.
func Subjects() []Subject {
	return []Subject{SubjectPython, SubjectJava, SubjectCPP, SubjectC, SubjectMixed}
}

// IsValid returns true if the subject is recognised.
func (s Subject) IsValid() bool {
	for _, known := range Subjects() {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (s Subject) String() string {
	return string(s)
}

// ParseSubject parses a subject name, case-insensitively.
func ParseSubject(raw string) (Subject, error) {
	s := Subject(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown subject %q", ErrInput, raw)
	}
	return s, nil
}

// Material is the durable record of one uploaded document and its derived artifacts.
// The orchestrator is its only writer.
type Material struct {
	// ID uniquely identifies this material.
	ID string `json:"id"`

	// OriginalFilename is the uploaded file name as supplied.
	OriginalFilename string `json:"originalFilename"`

	// SafeName is the filesystem-safe stem derived from OriginalFilename.
	SafeName string `json:"safeName"`

	// Subject is the namespace the artifacts are filed under.
	Subject Subject `json:"subject"`

	// UploadedBy references the uploading user. Empty for anonymous runs.
	UploadedBy string `json:"uploadedBy,omitempty"`

	// Status is the current lifecycle state.
	Status MaterialStatus `json:"status"`

	// Artifacts is the path set computed once at run start.
	Artifacts ArtifactSet `json:"artifacts"`

	// QuizContent holds the accepted quiz. Present if and only if Status is completed.
	QuizContent []QuizQuestion `json:"quizContent,omitempty"`

	// Error is the human-readable failure message for failed runs.
	Error string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	FailedAt    *time.Time `json:"failedAt,omitempty"`
}

// Validate checks the record invariants.
func (m *Material) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: material id is required", ErrInput)
	}
	if !m.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInput, m.Status)
	}
	hasQuiz := len(m.QuizContent) > 0
	if m.Status == StatusCompleted && !hasQuiz {
		return fmt.Errorf("%w: completed material %s has no quiz content", ErrInput, m.ID)
	}
	if m.Status != StatusCompleted && hasQuiz {
		return fmt.Errorf("%w: %s material %s carries quiz content", ErrInput, m.Status, m.ID)
	}
	return nil
}

// MaterialUpdate is a partial field set applied by MaterialStore.Update.
// Nil fields are left unchanged.
type MaterialUpdate struct {
	// OriginalFilename also resets SafeName.
	OriginalFilename *string
	Subject          *Subject

	Status      *MaterialStatus
	Artifacts   ArtifactSet
	QuizContent []QuizQuestion
	// ClearQuiz removes stored quiz content.
	ClearQuiz   bool
	Error       *string
	StartedAt   *time.Time
	CompletedAt *time.Time
	FailedAt    *time.Time
	// ClearTimestamps resets started, completed and failed times.
	ClearTimestamps bool
}

// Apply writes the update onto m.
func (u MaterialUpdate) Apply(m *Material) {
	if u.ClearTimestamps {
		m.StartedAt = nil
		m.CompletedAt = nil
		m.FailedAt = nil
	}
	if u.ClearQuiz {
		m.QuizContent = nil
	}
	if u.OriginalFilename != nil {
		m.OriginalFilename = *u.OriginalFilename
		m.SafeName = SafeName(*u.OriginalFilename)
	}
	if u.Subject != nil {
		m.Subject = *u.Subject
	}
	if u.Status != nil {
		m.Status = *u.Status
	}
	if u.Artifacts != nil {
		m.Artifacts = u.Artifacts.Clone()
	}
	if u.QuizContent != nil {
		m.QuizContent = append([]QuizQuestion(nil), u.QuizContent...)
	}
	if u.Error != nil {
		m.Error = *u.Error
	}
	if u.StartedAt != nil {
		t := *u.StartedAt
		m.StartedAt = &t
	}
	if u.CompletedAt != nil {
		t := *u.CompletedAt
		m.CompletedAt = &t
	}
	if u.FailedAt != nil {
		t := *u.FailedAt
		m.FailedAt = &t
	}
}

// ListFilter narrows MaterialStore.List. Zero fields match everything.
type ListFilter struct {
	Subject    Subject
	Status     MaterialStatus
	UploadedBy string
	// Limit caps the number of results. Zero means no limit.
	Limit int
}

// Matches reports whether m passes the filter, ignoring Limit.
func (f ListFilter) Matches(m *Material) bool {
	if f.Subject != "" && m.Subject != f.Subject {
		return false
	}
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	if f.UploadedBy != "" && m.UploadedBy != f.UploadedBy {
		return false
	}
	return true
}

// StatusPtr returns a pointer to s for use in MaterialUpdate.
func StatusPtr(s MaterialStatus) *MaterialStatus {
	return &s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time {
	return &t
}
