package ai

import (
	"fmt"

	"talentsift/internal/config"
	"talentsift/internal/types"
)

// maxResumeChars bounds how much resume text is embedded in a prompt so a
// single oversized document cannot blow past the model context window.
const maxResumeChars = 4000

// DefaultDescriptionTemplate is the built-in prompt for job-description
// screening. Placeholders: job description, resume text.
const DefaultDescriptionTemplate = `You are an expert HR recruiter analyzing resumes. Compare the following resume against the job description to determine if the candidate should be invited for an interview.

JOB DESCRIPTION:
%s

RESUME:
%s

IMPORTANT: You MUST respond with actual numeric scores (0-100), not placeholders like "[0-100]".

Please provide a detailed analysis in the following EXACT format:

OVERALL SCORE: 75
(Your actual numeric score from 0-100)

INTERVIEW RECOMMENDATION: Yes
(Choose: Yes / No / Maybe)

KEY QUALIFICATIONS MATCH: 80
(Your actual numeric score from 0-100)

SKILLS ASSESSMENT: 75
(Your actual numeric score from 0-100)

EXPERIENCE ASSESSMENT: 70
(Your actual numeric score from 0-100)

EDUCATION ASSESSMENT: 85
(Your actual numeric score from 0-100)

STRENGTHS:
- Strong Python development skills
- Experience with cloud infrastructure
- Excellent communication abilities

GAPS & CONCERNS:
- Limited experience with team leadership
- Missing some advanced certifications

INTERVIEW QUESTIONS:
- Tell me about a challenging project you led
- How do you stay updated with new technologies?

SUMMARY:
A solid candidate with strong technical skills who would be a good fit for the role.

REMEMBER: Replace the example numbers above with your actual scores. Do NOT include "[0-100]" or similar placeholders.
`

// DefaultCriteriaTemplate is the built-in prompt for structured-criteria
// screening. Placeholders: resume text, job title, skills, experience,
// education, additional requirements.
const DefaultCriteriaTemplate = `You are an expert HR recruiter analyzing resumes. Please analyze the following resume against the given criteria.

Resume:
%s

Screening Criteria:
- Job Title: %s
- Required Skills: %s
- Experience Level: %s
- Education: %s
- Additional Requirements: %s

IMPORTANT: You MUST respond with actual numeric scores (0-100), not placeholders like "[0-100]".

Please provide a detailed analysis in the following EXACT format:

OVERALL SCORE: 75
(Your actual numeric score from 0-100)

INTERVIEW RECOMMENDATION: Yes
(Choose: Yes / No / Maybe)

SKILLS MATCH: 75
(Your actual numeric score from 0-100)

EXPERIENCE ASSESSMENT: 70
(Your actual numeric score from 0-100)

EDUCATION ASSESSMENT: 85
(Your actual numeric score from 0-100)

STRENGTHS:
- Strong technical background
- Relevant work experience
- Good educational qualifications

GAPS & CONCERNS:
- Missing some specific skills
- Limited industry experience

INTERVIEW QUESTIONS:
- Describe your experience with key technologies
- How do you approach problem-solving?

SUMMARY:
A qualified candidate who meets most requirements.

REMEMBER: Replace the example numbers above with your actual scores. Do NOT include "[0-100]" or similar placeholders.
`

// BuildScreeningPrompt assembles the screening prompt for one resume. When the
// criteria carry a job description the richer description template is used,
// otherwise the structured-criteria template with "Not specified" defaults.
// Custom templates loaded from configuration take precedence over built-ins.
func BuildScreeningPrompt(resumeText string, criteria types.ScreeningCriteria) string {
	if len(resumeText) > maxResumeChars {
		resumeText = resumeText[:maxResumeChars]
	}

	custom := config.GetLoadedTemplates()

	if criteria.Mode() == types.ModeDescription {
		template := DefaultDescriptionTemplate
		if custom.Description != "" {
			template = custom.Description
		}
		return fmt.Sprintf(template, criteria.JobDescription, resumeText)
	}

	template := DefaultCriteriaTemplate
	if custom.Criteria != "" {
		template = custom.Criteria
	}
	return fmt.Sprintf(template,
		resumeText,
		orDefault(criteria.JobTitle, "Not specified"),
		orDefault(criteria.Skills, "Not specified"),
		orDefault(criteria.Experience, "Not specified"),
		orDefault(criteria.Education, "Not specified"),
		orDefault(criteria.AdditionalNotes, "None"))
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
