// ABOUTME: Process decomposition structures used by the guided execution engine
// ABOUTME: A ProcessDefinition is the step breakdown of one process document
package models

// ProcessStep is a single atomic action within a process.
type ProcessStep struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	EstimatedTime string   `json:"estimatedTime,omitempty"`
	Checkpoints   []string `json:"checkpoints,omitempty"`
	Tools         []string `json:"tools,omitempty"`
	Tips          string   `json:"tips,omitempty"`
}

// ProcessDefinition is the structured decomposition of a process document.
type ProcessDefinition struct {
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	EstimatedDuration string        `json:"estimatedDuration"`
	Steps             []ProcessStep `json:"steps"`
}
