package soapnote

import (
	"regexp"
	"strings"
)

var (
	assessmentMarker = regexp.MustCompile(`(?i)(?:^|\n)\s*A\s*:`)
	planMarker       = regexp.MustCompile(`(?i)(?:^|\n)\s*P\s*:`)

	// planBoundary ends the assessment; searched after the A marker so it needs a newline
	planBoundary = regexp.MustCompile(`(?i)\n\s*P\s*:`)

	// numberedItem is the start of a numbered problem line, e.g. "2. "
	numberedItem = regexp.MustCompile(`^\d+\.\s`)
)

// Problem is one numbered item of the assessment
type Problem struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ParseHistory extracts the assessment problems and the raw plan from a prior note.
// Missing markers yield empty results.
func ParseHistory(text string) ([]Problem, string) {
	return splitProblems(assessmentText(text)), planText(text)
}

func assessmentText(text string) string {
	loc := assessmentMarker.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	body := text[loc[1]:]
	if end := planBoundary.FindStringIndex(body); end != nil {
		body = body[:end[0]]
	}
	return strings.TrimSpace(body)
}

func planText(text string) string {
	loc := planMarker.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	return strings.TrimSpace(text[loc[1]:])
}

// splitProblems cuts the assessment at every newline that begins a numbered line
func splitProblems(assessment string) []Problem {
	if assessment == "" {
		return nil
	}

	text := "\n" + assessment
	var (
		problems []Problem
		start    int
	)
	flush := func(end int) {
		item := strings.TrimSpace(text[start:end])
		if item == "" {
			return
		}
		title := strings.TrimSpace(strings.SplitN(item, "\n", 2)[0])
		problems = append(problems, Problem{Title: title, Content: item})
	}

	for i := 0; i < len(text); i++ {
		if text[i] != '\n' || !numberedItem.MatchString(text[i+1:]) {
			continue
		}
		flush(i)
		start = i + 1
	}
	flush(len(text))

	return problems
}
