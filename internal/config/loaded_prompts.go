package config

import (
	"sync"
)

var (
	loadedPrompts     LoadedPromptTemplates
	loadedPromptsOnce sync.Once
)

// LoadedPromptTemplates holds the screening prompt templates after resolving
// inline config values and external files. Empty fields mean the built-in
// defaults apply.
type LoadedPromptTemplates struct {
	// Description is the template used when a job description is supplied.
	// It must contain two %s verbs: job description, then resume text.
	Description string
	// Criteria is the template used for structured criteria screening.
	// It must contain six %s verbs: resume text, job title, skills,
	// experience, education, additional notes.
	Criteria string
}

// GetLoadedTemplates returns the resolved prompt templates
func GetLoadedTemplates() LoadedPromptTemplates {
	return loadedPrompts
}
