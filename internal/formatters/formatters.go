package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"talentsift/internal/types"
)

// Formatter renders one data type into one output format
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// anyType is the wildcard data type a formatter can register under to
// catch values no specific formatter claims
const anyType = "any"

type formatterKey struct {
	format   string
	dataType string
}

// FormatterRegistry resolves (format, data type) pairs to formatters.
// JSON is registered as a wildcard; text and markdown have dedicated
// renderers per result shape.
type FormatterRegistry struct {
	byKey map[formatterKey]Formatter
}

// GlobalRegistry is the registry the CLI and server render through
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry builds a registry with the built-in formatters
func NewFormatterRegistry() *FormatterRegistry {
	fr := &FormatterRegistry{byKey: make(map[formatterKey]Formatter)}
	fr.RegisterFormatter("json", anyType, &JSONFormatter{})
	fr.RegisterFormatter("text", "AnalysisResult", &ResultTextFormatter{})
	fr.RegisterFormatter("markdown", "AnalysisResult", &ResultMarkdownFormatter{})
	fr.RegisterFormatter("text", "BatchResult", &BatchTextFormatter{})
	fr.RegisterFormatter("markdown", "BatchResult", &BatchMarkdownFormatter{})
	return fr
}

// RegisterFormatter adds or replaces the formatter for a format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	fr.byKey[formatterKey{format, dataType}] = formatter
}

// Format renders data in the requested format, falling back to the
// format's wildcard formatter when no type-specific one is registered
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := dataTypeOf(data)
	if f, ok := fr.byKey[formatterKey{format, dataType}]; ok {
		return f.Format(data)
	}
	if f, ok := fr.byKey[formatterKey{format, anyType}]; ok {
		return f.Format(data)
	}
	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats lists every format with at least one formatter
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	seen := make(map[string]bool)
	var formats []string
	for key := range fr.byKey {
		if !seen[key.format] {
			seen[key.format] = true
			formats = append(formats, key.format)
		}
	}
	return formats
}

func dataTypeOf(data any) string {
	switch data.(type) {
	case *types.AnalysisResult:
		return "AnalysisResult"
	case *types.BatchResult:
		return "BatchResult"
	}
	return anyType
}

// JSONFormatter marshals anything with indentation
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (jf *JSONFormatter) SupportedType() string { return anyType }

// ResultTextFormatter renders one screening result as plain text
type ResultTextFormatter struct{}

func (rtf *ResultTextFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected *AnalysisResult, got %T", data)
	}
	var b strings.Builder
	writeResultText(&b, result)
	return b.String(), nil
}

func (rtf *ResultTextFormatter) SupportedType() string { return "AnalysisResult" }

func writeResultText(b *strings.Builder, result *types.AnalysisResult) {
	title := "SCREENING RESULT"
	if result.Filename != "" {
		title = result.Filename
	}
	fmt.Fprintf(b, "=== %s ===\n", title)

	if result.IsError() {
		fmt.Fprintf(b, "Error: %s\n", result.Error)
		return
	}

	fmt.Fprintf(b, "Overall Score: %d/100\n", result.OverallScore)
	fmt.Fprintf(b, "Interview Recommendation: %s\n\n", result.Recommendation)

	b.WriteString("Scores:\n")
	if result.QualificationsScore > 0 {
		fmt.Fprintf(b, "  Qualifications: %d/100\n", result.QualificationsScore)
	}
	fmt.Fprintf(b, "  Skills:         %d/100\n", result.SkillsScore)
	fmt.Fprintf(b, "  Experience:     %d/100\n", result.ExperienceScore)
	fmt.Fprintf(b, "  Education:      %d/100\n\n", result.EducationScore)

	writeTextList(b, "Strengths:", result.Strengths)
	writeTextList(b, "Gaps & Concerns:", result.Weaknesses)

	if len(result.InterviewQuestions) > 0 {
		b.WriteString("Interview Questions:\n")
		for i, question := range result.InterviewQuestions {
			fmt.Fprintf(b, "%d. %s\n", i+1, question)
		}
		b.WriteString("\n")
	}

	if result.Summary != "" {
		b.WriteString("Summary:\n")
		b.WriteString(result.Summary)
		b.WriteString("\n")
	}
}

func writeTextList(b *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(header)
	b.WriteString("\n")
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// ResultMarkdownFormatter renders one screening result as markdown
type ResultMarkdownFormatter struct{}

func (rmf *ResultMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected *AnalysisResult, got %T", data)
	}
	var b strings.Builder
	writeResultMarkdown(&b, result, "#")
	return b.String(), nil
}

func (rmf *ResultMarkdownFormatter) SupportedType() string { return "AnalysisResult" }

// writeResultMarkdown emits one result under the given heading level, so
// batch output can nest results one level down.
func writeResultMarkdown(b *strings.Builder, result *types.AnalysisResult, heading string) {
	if result.Filename != "" {
		fmt.Fprintf(b, "%s %s\n\n", heading, result.Filename)
	} else {
		fmt.Fprintf(b, "%s Screening Result\n\n", heading)
	}

	if result.IsError() {
		fmt.Fprintf(b, "**Error:** %s\n\n", result.Error)
		return
	}

	fmt.Fprintf(b, "**Overall Score:** %d/100\n\n", result.OverallScore)
	fmt.Fprintf(b, "**Interview Recommendation:** %s\n\n", result.Recommendation)

	fmt.Fprintf(b, "%s# Scores\n\n", heading)
	if result.QualificationsScore > 0 {
		fmt.Fprintf(b, "- Qualifications: %d/100\n", result.QualificationsScore)
	}
	fmt.Fprintf(b, "- Skills: %d/100\n", result.SkillsScore)
	fmt.Fprintf(b, "- Experience: %d/100\n", result.ExperienceScore)
	fmt.Fprintf(b, "- Education: %d/100\n\n", result.EducationScore)

	writeMarkdownList(b, heading+"# Strengths", result.Strengths)
	writeMarkdownList(b, heading+"# Gaps & Concerns", result.Weaknesses)

	if len(result.InterviewQuestions) > 0 {
		fmt.Fprintf(b, "%s# Interview Questions\n\n", heading)
		for i, question := range result.InterviewQuestions {
			fmt.Fprintf(b, "%d. %s\n", i+1, question)
		}
		b.WriteString("\n")
	}

	if result.Summary != "" {
		fmt.Fprintf(b, "%s# Summary\n\n", heading)
		b.WriteString(result.Summary)
		b.WriteString("\n")
	}
}

func writeMarkdownList(b *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s\n\n", header)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// BatchTextFormatter renders a ranked batch as plain text
type BatchTextFormatter struct{}

func (btf *BatchTextFormatter) Format(data any) (string, error) {
	batch, ok := data.(*types.BatchResult)
	if !ok {
		return "", fmt.Errorf("expected *BatchResult, got %T", data)
	}

	var b strings.Builder
	b.WriteString("=== SCREENING BATCH ===\n")
	fmt.Fprintf(&b, "Analyzed: %d  Errors: %d\n\n", batch.Analyzed, batch.Errors)
	for i, result := range batch.Results {
		if i > 0 {
			b.WriteString("\n")
		}
		writeResultText(&b, result)
	}
	return b.String(), nil
}

func (btf *BatchTextFormatter) SupportedType() string { return "BatchResult" }

// BatchMarkdownFormatter renders a ranked batch as markdown
type BatchMarkdownFormatter struct{}

func (bmf *BatchMarkdownFormatter) Format(data any) (string, error) {
	batch, ok := data.(*types.BatchResult)
	if !ok {
		return "", fmt.Errorf("expected *BatchResult, got %T", data)
	}

	var b strings.Builder
	b.WriteString("# Screening Batch\n\n")
	fmt.Fprintf(&b, "**Analyzed:** %d  \n**Errors:** %d\n\n", batch.Analyzed, batch.Errors)
	for _, result := range batch.Results {
		writeResultMarkdown(&b, result, "##")
	}
	return b.String(), nil
}

func (bmf *BatchMarkdownFormatter) SupportedType() string { return "BatchResult" }
