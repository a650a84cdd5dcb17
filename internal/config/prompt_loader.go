package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// loadPromptsFromFiles resolves the screening prompt templates. Inline config
// values are taken first, then overridden by file content when a file path is
// set. Missing or empty template files are configuration errors.
func (c *Config) loadPromptsFromFiles() error {
	loadedPromptsOnce.Do(func() {
		loadedPrompts = LoadedPromptTemplates{}
	})

	loadedPrompts.Description = c.AI.Prompts.Description
	loadedPrompts.Criteria = c.AI.Prompts.Criteria

	if c.AI.Prompts.DescriptionFile != "" {
		content, err := c.loadPromptFromFile(c.AI.Prompts.DescriptionFile, "description")
		if err != nil {
			return err
		}
		loadedPrompts.Description = content
	}

	if c.AI.Prompts.CriteriaFile != "" {
		content, err := c.loadPromptFromFile(c.AI.Prompts.CriteriaFile, "criteria")
		if err != nil {
			return err
		}
		loadedPrompts.Criteria = content
	}

	c.logPromptLoadingSummary()

	return nil
}

// loadPromptFromFile loads one template file with error handling and logging
func (c *Config) loadPromptFromFile(filePath, template string) (string, error) {
	// Resolve relative paths
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s prompt file '%s': %w", template, filePath, err)
	}

	// Check if file exists
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s prompt file not found: %s", template, absPath)
	}

	// Read file content
	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s prompt file '%s': %w", template, absPath, err)
	}

	// Validate content is not empty
	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s prompt file '%s' is empty", template, absPath)
	}

	// Custom templates still need the placeholders the prompt builder fills in
	expected := 2
	if template == "criteria" {
		expected = 6
	}
	if got := strings.Count(trimmedContent, "%s"); got != expected {
		return "", fmt.Errorf("%s prompt file '%s' must contain exactly %d %%s placeholders, found %d", template, absPath, expected, got)
	}

	log.Printf("[CONFIG] Successfully loaded %s prompt template from file: %s (%d characters)",
		template, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// logPromptLoadingSummary logs a summary of loaded prompt templates
func (c *Config) logPromptLoadingSummary() {
	count := 0
	if loadedPrompts.Description != "" {
		log.Println("[CONFIG] Description screening prompt: loaded from config/file")
		count++
	}
	if loadedPrompts.Criteria != "" {
		log.Println("[CONFIG] Criteria screening prompt: loaded from config/file")
		count++
	}
	if count == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompt templates loaded: %d", count)
	}
}
