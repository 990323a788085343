// ABOUTME: LLM decomposition of a process document into actionable steps
// ABOUTME: Malformed model output falls back to a generic 3-step skeleton
package guided

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/flowbrave/copilot/internal/llm"
	"github.com/flowbrave/copilot/internal/models"
	"github.com/flowbrave/copilot/internal/textutil"
)

// ErrDecomposition marks model output that could not be parsed into steps.
var ErrDecomposition = errors.New("process decomposition failed")

// Decomposer turns document content into a structured process definition.
type Decomposer struct {
	completion llm.CompletionProvider
	logger     *log.Logger
}

// NewDecomposer creates a decomposer.
func NewDecomposer(completion llm.CompletionProvider, logger *log.Logger) *Decomposer {
	if logger == nil {
		logger = log.Default()
	}
	return &Decomposer{completion: completion, logger: logger}
}

// Decompose asks the model to break content into steps. Provider or parse
// failures fall back to a generic skeleton titled from the document, so a
// guided session can always start.
func (d *Decomposer) Decompose(ctx context.Context, content string) models.ProcessDefinition {
	definition, err := d.decompose(ctx, content)
	if err != nil {
		d.logger.Warn("decomposition fell back to skeleton", "error", err)
		return skeletonDefinition(content)
	}
	return definition
}

func (d *Decomposer) decompose(ctx context.Context, content string) (models.ProcessDefinition, error) {
	prompt := fmt.Sprintf(decompositionPromptTemplate, content)
	raw, err := d.completion.Complete(ctx, prompt, []llm.Message{{Role: llm.RoleUser, Content: content}})
	if err != nil {
		return models.ProcessDefinition{}, err
	}

	var definition models.ProcessDefinition
	if err := json.Unmarshal([]byte(extractJSON(raw)), &definition); err != nil {
		return models.ProcessDefinition{}, fmt.Errorf("%w: %v", ErrDecomposition, err)
	}
	if len(definition.Steps) == 0 {
		return models.ProcessDefinition{}, fmt.Errorf("%w: no steps in model output", ErrDecomposition)
	}

	for i := range definition.Steps {
		if definition.Steps[i].ID == "" {
			definition.Steps[i].ID = fmt.Sprintf("step_%d", i+1)
		}
	}
	return definition, nil
}

// skeletonDefinition is the generic 3-step structure used when the model
// cannot produce a usable decomposition.
func skeletonDefinition(content string) models.ProcessDefinition {
	title := textutil.FirstLine(textutil.StripHTML(content), 50)
	if title == "" {
		title = "Guided process"
	}

	return models.ProcessDefinition{
		Title:             title,
		Description:       "Automatically extracted process",
		EstimatedDuration: "Variable",
		Steps: []models.ProcessStep{
			{
				ID:            "step_1",
				Title:         "Step 1 - Preparation",
				Description:   "Prepare the necessary items for this process",
				EstimatedTime: "10 minutes",
			},
			{
				ID:            "step_2",
				Title:         "Step 2 - Execution",
				Description:   "Execute the main actions of the process",
				EstimatedTime: "20 minutes",
			},
			{
				ID:            "step_3",
				Title:         "Step 3 - Verification",
				Description:   "Check that everything has been done correctly",
				EstimatedTime: "5 minutes",
			},
		},
	}
}
