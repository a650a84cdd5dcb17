// Package analysis turns raw model replies into structured screening results.
package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"talentsift/internal/types"
)

// section tracks which list or text block subsequent lines belong to
type section int

const (
	sectionNone section = iota
	sectionQualifications
	sectionSkills
	sectionExperience
	sectionEducation
	sectionStrengths
	sectionWeaknesses
	sectionQuestions
	sectionSummary
)

// Score patterns are tried in order; the first in-range match wins.
var scorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s*%`),              // "75%" or "75 %"
	regexp.MustCompile(`^\s*(\d+)\s*$`),          // just a number
	regexp.MustCompile(`(\d+)\s*out\s*of\s*\d+`), // "75 out of 100"
	regexp.MustCompile(`(\d+)/\d+`),              // "75/100"
}

// bulletCutset mirrors the characters stripped from list item prefixes
const bulletCutset = "-•123456789. "

// ExtractScore pulls a numeric score out of free-form text. Out-of-range
// numbers fall through to the next pattern; no match at all yields 0.
func ExtractScore(text string) int {
	for _, pattern := range scorePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		score, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if score >= 0 && score <= 100 {
			return score
		}
	}
	return 0
}

// Parse converts one model reply into a structured result. It never fails:
// a reply that matches nothing produces zero scores and empty lists, with
// the raw reply preserved in DetailedAnalysis for review.
func Parse(reply string) *types.AnalysisResult {
	result := &types.AnalysisResult{
		Strengths:          []string{},
		Weaknesses:         []string{},
		InterviewQuestions: []string{},
		DetailedAnalysis:   reply,
	}

	current := sectionNone
	var summary strings.Builder

	for _, rawLine := range strings.Split(reply, "\n") {
		line := strings.TrimSpace(rawLine)

		switch {
		case strings.HasPrefix(line, "OVERALL SCORE:"):
			result.OverallScore = ExtractScore(afterColon(line))

		case strings.HasPrefix(line, "INTERVIEW RECOMMENDATION:"):
			result.InterviewRecommendation = afterColon(line)
			result.Recommendation = result.InterviewRecommendation
			current = sectionNone

		case strings.HasPrefix(line, "KEY QUALIFICATIONS MATCH:"):
			result.QualificationsScore = ExtractScore(afterColon(line))
			current = sectionQualifications

		case strings.HasPrefix(line, "SKILLS MATCH:") || strings.HasPrefix(line, "SKILLS ASSESSMENT:"):
			result.SkillsScore = ExtractScore(afterColon(line))
			current = sectionSkills

		case strings.HasPrefix(line, "EXPERIENCE ASSESSMENT:"):
			result.ExperienceScore = ExtractScore(afterColon(line))
			current = sectionExperience

		case strings.HasPrefix(line, "EDUCATION ASSESSMENT:"):
			result.EducationScore = ExtractScore(afterColon(line))
			current = sectionEducation

		case strings.HasPrefix(line, "STRENGTHS:"):
			current = sectionStrengths
			result.Strengths = []string{}

		case strings.HasPrefix(line, "GAPS & CONCERNS:") || strings.HasPrefix(line, "WEAKNESSES/GAPS:"):
			current = sectionWeaknesses
			result.Weaknesses = []string{}

		case strings.HasPrefix(line, "INTERVIEW QUESTIONS:"):
			current = sectionQuestions
			result.InterviewQuestions = []string{}

		case strings.HasPrefix(line, "SUMMARY:"):
			current = sectionSummary
			summary.Reset()

		default:
			if line == "" {
				continue
			}
			switch current {
			case sectionStrengths:
				if isListItem(line, 3) {
					result.Strengths = append(result.Strengths, cleanListItem(line))
				}
			case sectionWeaknesses:
				if isListItem(line, 3) {
					result.Weaknesses = append(result.Weaknesses, cleanListItem(line))
				}
			case sectionQuestions:
				if isListItem(line, 4) {
					result.InterviewQuestions = append(result.InterviewQuestions, cleanListItem(line))
				}
			case sectionSummary:
				summary.WriteString(line)
				summary.WriteString(" ")
			}
		}
	}

	result.Summary = strings.TrimSpace(summary.String())

	return result
}

// afterColon returns the trimmed text after the first colon
func afterColon(line string) string {
	_, rest, found := strings.Cut(line, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(rest)
}

// isListItem reports whether a line looks like a bullet or ordinal entry.
// Ordinals are accepted up to maxOrdinal, matching the example counts the
// prompt shows the model.
func isListItem(line string, maxOrdinal int) bool {
	if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") {
		return true
	}
	for i := 1; i <= maxOrdinal; i++ {
		if strings.HasPrefix(line, strconv.Itoa(i)+".") {
			return true
		}
	}
	return false
}

// cleanListItem strips the bullet or ordinal prefix from a list entry
func cleanListItem(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, bulletCutset))
}
