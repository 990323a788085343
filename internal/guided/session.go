// ABOUTME: Guided session state: current step, completed set, progress
package guided

import (
	"math"
	"time"

	"github.com/flowbrave/copilot/internal/models"
)

// Session tracks a user working through a decomposed process. Not safe for
// concurrent use on its own; the registry serializes same-user access.
type Session struct {
	UserID        string
	DocumentID    string
	DocumentTitle string
	Definition    models.ProcessDefinition
	StartedAt     time.Time

	currentStepIndex int
	completedSteps   map[int]bool
}

// NewSession starts a session at the first step.
func NewSession(userID string, doc models.Document, definition models.ProcessDefinition) *Session {
	return &Session{
		UserID:         userID,
		DocumentID:     doc.ID,
		DocumentTitle:  doc.Title,
		Definition:     definition,
		StartedAt:      time.Now(),
		completedSteps: make(map[int]bool),
	}
}

// CurrentStep returns the step the user is on.
func (s *Session) CurrentStep() models.ProcessStep {
	return s.Definition.Steps[s.currentStepIndex]
}

// Advance moves to the next step, reporting false at the last step.
func (s *Session) Advance() bool {
	if s.currentStepIndex < len(s.Definition.Steps)-1 {
		s.currentStepIndex++
		return true
	}
	return false
}

// Back moves to the previous step, reporting false at the first step.
func (s *Session) Back() bool {
	if s.currentStepIndex > 0 {
		s.currentStepIndex--
		return true
	}
	return false
}

// MarkStepCompleted records the current step as done.
func (s *Session) MarkStepCompleted() {
	s.completedSteps[s.currentStepIndex] = true
}

// OnLastStep reports whether the current step is the final one.
func (s *Session) OnLastStep() bool {
	return s.currentStepIndex == len(s.Definition.Steps)-1
}

// IsCompleted reports whether every step has been marked done.
func (s *Session) IsCompleted() bool {
	return len(s.completedSteps) == len(s.Definition.Steps)
}

// Progress summarizes the session position.
func (s *Session) Progress() models.Progress {
	total := len(s.Definition.Steps)
	done := len(s.completedSteps)
	return models.Progress{
		CurrentStep:        s.currentStepIndex + 1,
		TotalSteps:         total,
		CompletedSteps:     done,
		ProgressPercentage: int(math.Round(float64(done) / float64(total) * 100)),
	}
}
