// ABOUTME: Guided chat routing: active session, intent detection, session start,
// ABOUTME: or delegation to the plain answer generator
package guided

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/flowbrave/copilot/internal/llm"
	"github.com/flowbrave/copilot/internal/models"
)

// completionIndicators mark a message as reporting the current step done.
var completionIndicators = []string{
	"done", "finished", "completed", "ok", "good",
	"validated", "sent", "created", "configured",
}

type command int

const (
	cmdQuestion command = iota
	cmdNext
	cmdPrevious
	cmdStop
	cmdCompleted
)

// parseCommand checks navigation words in priority order; anything else is a
// step-scoped question.
func parseCommand(message string) command {
	lower := strings.ToLower(strings.TrimSpace(message))
	switch {
	case strings.Contains(lower, "next"):
		return cmdNext
	case strings.Contains(lower, "previous"):
		return cmdPrevious
	case strings.Contains(lower, "stop"), strings.Contains(lower, "quit"):
		return cmdStop
	}
	for _, indicator := range completionIndicators {
		if strings.Contains(lower, indicator) {
			return cmdCompleted
		}
	}
	return cmdQuestion
}

// Answerer is the plain chat generator guided mode delegates to.
type Answerer interface {
	Answer(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error)
}

// Engine routes guided-mode chat requests.
type Engine struct {
	registry   *Registry
	detector   *Detector
	decomposer *Decomposer
	answerer   Answerer
	completion llm.CompletionProvider
	logger     *log.Logger
}

// NewEngine wires the guided engine.
func NewEngine(registry *Registry, detector *Detector, decomposer *Decomposer, answerer Answerer, completion llm.CompletionProvider, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		registry:   registry,
		detector:   detector,
		decomposer: decomposer,
		answerer:   answerer,
		completion: completion,
		logger:     logger,
	}
}

// Registry exposes the session registry for lifecycle management.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Route handles one guided-mode message: an active session takes priority,
// then new-process detection, then plain chat.
func (e *Engine) Route(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	release := e.registry.Acquire(req.UserID)
	defer release()

	if session := e.registry.Get(req.UserID); session != nil {
		return e.handleSession(ctx, req, session), nil
	}

	detection := e.detector.Detect(ctx, req.Query, req.TenantID)
	if detection.IsProcessRequest {
		return e.startSession(ctx, req, detection.Document), nil
	}

	return e.answerer.Answer(ctx, req)
}

// startSession decomposes the document, stores the session (replacing any
// prior one for the user), and returns the welcome walkthrough.
func (e *Engine) startSession(ctx context.Context, req models.ChatRequest, doc models.Document) models.ChatResponse {
	definition := e.decomposer.Decompose(ctx, doc.Content)

	session := NewSession(req.UserID, doc, definition)
	e.registry.Put(session)

	first := session.CurrentStep()
	progress := session.Progress()

	preview := doc.Content
	if len(preview) > 150 {
		preview = preview[:150]
	}
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}

	return models.ChatResponse{
		Response: welcomeMessage(definition, first),
		Sources: []models.Source{{
			ID:             doc.ID,
			Title:          doc.Title,
			Content:        preview,
			Tags:           tags,
			RelevanceScore: 1.0,
		}},
		GuidedMode:   true,
		Progress:     &progress,
		CurrentStep:  &first,
		ProcessTitle: definition.Title,
	}
}

func (e *Engine) handleSession(ctx context.Context, req models.ChatRequest, session *Session) models.ChatResponse {
	switch parseCommand(req.Query) {
	case cmdNext:
		return e.handleNext(session)
	case cmdPrevious:
		return e.handlePrevious(session)
	case cmdStop:
		e.registry.Delete(session.UserID)
		return models.ChatResponse{
			Response: "Guided session stopped. You can resume the process at any time by asking me for help!",
			Sources:  []models.Source{},
		}
	case cmdCompleted:
		return e.handleCompleted(session)
	default:
		return e.handleStepQuestion(ctx, req.Query, session)
	}
}

func (e *Engine) handleNext(session *Session) models.ChatResponse {
	if !session.Advance() {
		progress := session.Progress()
		return models.ChatResponse{
			Response:   "Congratulations! You have completed all the steps of this process! Great job!",
			Sources:    []models.Source{},
			GuidedMode: true,
			Completed:  true,
			Progress:   &progress,
		}
	}

	step := session.CurrentStep()
	progress := session.Progress()

	response := fmt.Sprintf("Moving to step %d/%d :\n\n%s\n\n%s",
		progress.CurrentStep, progress.TotalSteps, step.Title, step.Description)
	if len(step.Checkpoints) > 0 {
		response += "\n\nCheckpoints:\n- " + strings.Join(step.Checkpoints, "\n- ")
	}

	return models.ChatResponse{
		Response:    response,
		Sources:     []models.Source{},
		GuidedMode:  true,
		Progress:    &progress,
		CurrentStep: &step,
	}
}

func (e *Engine) handlePrevious(session *Session) models.ChatResponse {
	if !session.Back() {
		step := session.CurrentStep()
		progress := session.Progress()
		return models.ChatResponse{
			Response:    "You are already at the first step!",
			Sources:     []models.Source{},
			GuidedMode:  true,
			Progress:    &progress,
			CurrentStep: &step,
		}
	}

	step := session.CurrentStep()
	progress := session.Progress()
	return models.ChatResponse{
		Response: fmt.Sprintf("Back to step %d/%d :\n\n%s\n\n%s",
			progress.CurrentStep, progress.TotalSteps, step.Title, step.Description),
		Sources:     []models.Source{},
		GuidedMode:  true,
		Progress:    &progress,
		CurrentStep: &step,
	}
}

func (e *Engine) handleCompleted(session *Session) models.ChatResponse {
	step := session.CurrentStep()
	session.MarkStepCompleted()
	progress := session.Progress()

	if session.OnLastStep() {
		return models.ChatResponse{
			Response:   "Congratulations! You have successfully completed all the steps of this process!",
			Sources:    []models.Source{},
			GuidedMode: true,
			Completed:  true,
			Progress:   &progress,
		}
	}

	return models.ChatResponse{
		Response: fmt.Sprintf("Great! Step %q completed.\n\nWould you like to move to the next step? (say \"next\" or ask me a question about the current step)",
			step.Title),
		Sources:       []models.Source{},
		GuidedMode:    true,
		Progress:      &progress,
		CurrentStep:   &step,
		StepCompleted: true,
	}
}

func (e *Engine) handleStepQuestion(ctx context.Context, query string, session *Session) models.ChatResponse {
	step := session.CurrentStep()
	progress := session.Progress()

	checkpoints := "None"
	if len(step.Checkpoints) > 0 {
		checkpoints = strings.Join(step.Checkpoints, "\n- ")
	}

	prompt := fmt.Sprintf(stepPromptTemplate,
		session.Definition.Title, progress.CurrentStep, progress.TotalSteps,
		step.Title, step.Description, checkpoints, query)

	text, err := e.completion.Complete(ctx, prompt, []llm.Message{{Role: llm.RoleUser, Content: query}})
	if err != nil {
		e.logger.Warn("guided step response failed, using template", "error", err)
		text = fmt.Sprintf("For this step %q, %s\n\nDo you have any specific questions? Say \"done\" when you are finished.",
			step.Title, step.Description)
	}

	return models.ChatResponse{
		Response:    text,
		Sources:     []models.Source{},
		GuidedMode:  true,
		Progress:    &progress,
		CurrentStep: &step,
	}
}

func welcomeMessage(definition models.ProcessDefinition, first models.ProcessStep) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Perfect! I will guide you step by step for: %q\n\n", definition.Title)
	fmt.Fprintf(&b, "Overview: %s\n", definition.Description)
	fmt.Fprintf(&b, "Estimated time: %s\n", definition.EstimatedDuration)
	fmt.Fprintf(&b, "Number of steps: %d\n\n---\n\n", len(definition.Steps))
	fmt.Fprintf(&b, "Step 1/%d: %s\n\n%s\n", len(definition.Steps), first.Title, first.Description)
	if len(first.Checkpoints) > 0 {
		fmt.Fprintf(&b, "\nCheckpoints:\n- %s\n", strings.Join(first.Checkpoints, "\n- "))
	}
	if first.Tips != "" {
		fmt.Fprintf(&b, "\nTip: %s\n", first.Tips)
	}
	b.WriteString(`
---

Useful commands:
- Say "next" to go to the next step
- Say "previous" to go back
- Say "stop" to stop the guidance
- Ask me questions about the current step

Ready to start?`)
	return b.String()
}
