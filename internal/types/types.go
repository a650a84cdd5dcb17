package types

// ScreeningMode selects how the screening criteria are expressed
type ScreeningMode string

const (
	// ModeDescription screens against a free-form job description
	ModeDescription ScreeningMode = "description"
	// ModeCriteria screens against structured criteria fields
	ModeCriteria ScreeningMode = "criteria"
)

// ScreeningCriteria represents the screening input for one batch.
// Exactly one mode is active: a non-empty JobDescription selects
// description mode, otherwise the structured fields are used.
type ScreeningCriteria struct {
	JobDescription  string `json:"job_description,omitempty"`
	JobTitle        string `json:"job_title,omitempty"`
	Skills          string `json:"skills,omitempty"`
	Experience      string `json:"experience,omitempty"`
	Education       string `json:"education,omitempty"`
	AdditionalNotes string `json:"additional_notes,omitempty"`
}

// Mode reports which screening mode the criteria select
func (c ScreeningCriteria) Mode() ScreeningMode {
	if c.JobDescription != "" {
		return ModeDescription
	}
	return ModeCriteria
}

// AnalysisResult represents the structured outcome of screening one resume.
// Score fields default to 0 when the model reply does not carry a
// recognizable value. The Error field is mutually exclusive with the
// score fields: an error-variant result carries only Filename and Error.
type AnalysisResult struct {
	Filename            string   `json:"filename"`
	OverallScore        int      `json:"overall_score"`
	SkillsScore         int      `json:"skills_score"`
	ExperienceScore     int      `json:"experience_score"`
	EducationScore      int      `json:"education_score"`
	QualificationsScore int      `json:"qualifications_score"`
	Strengths           []string `json:"strengths"`
	Weaknesses          []string `json:"weaknesses"`
	InterviewQuestions  []string `json:"interview_questions"`
	// InterviewRecommendation holds the model's verbatim recommendation,
	// typically "Yes", "No" or "Maybe" but not validated.
	InterviewRecommendation string `json:"interview_recommendation"`
	// Recommendation is a legacy alias of InterviewRecommendation kept for
	// existing export consumers.
	Recommendation   string `json:"recommendation"`
	Summary          string `json:"summary"`
	DetailedAnalysis string `json:"detailed_analysis,omitempty"`
	Error            string `json:"error,omitempty"`
}

// IsError reports whether this is an error-variant result
func (r *AnalysisResult) IsError() bool {
	return r.Error != ""
}

// TokenUsage represents token consumption reported by a provider for one call
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// CompletionResult carries one provider reply plus optional usage data
type CompletionResult struct {
	Text  string
	Usage *TokenUsage
}

// BatchItem is one resume handed to the batch orchestrator
type BatchItem struct {
	Filename string
	Path     string
	Data     []byte
}

// BatchResult represents the ordered outcome of one screening batch:
// ranked results first (descending overall score, stable), error-variant
// results appended last.
type BatchResult struct {
	Results  []*AnalysisResult `json:"results"`
	Analyzed int               `json:"analyzed"`
	Errors   int               `json:"errors"`
}
