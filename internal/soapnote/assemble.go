package soapnote

import (
	"fmt"
	"regexp"
	"strings"
)

// leadingNumeral is the problem number at the very start of a text
var leadingNumeral = regexp.MustCompile(`^\d+\.\s*`)

// planSections are copied from each commit into the plan
var planSections = []Section{SectionCurrentManagement, SectionConsult}

// StripNumeral removes a leading "N. " from s
func StripNumeral(s string) string {
	return leadingNumeral.ReplaceAllString(s, "")
}

// Renumber renders problems as the assessment block, numbering them by
// position and dropping whatever numeral each one carried before.
func Renumber(problems []Problem) string {
	blocks := make([]string, 0, len(problems))
	for i, p := range problems {
		content := StripNumeral(strings.TrimSpace(p.Content))
		blocks = append(blocks, fmt.Sprintf("%d. %s", i+1, content))
	}
	return strings.Join(blocks, "\n\n")
}

// PlanExcerpt collects the Current Management and Consult blocks of one
// commit's edited text under the commit's problem title. ok is false when
// neither block has content.
func PlanExcerpt(title, edited string) (excerpt string, ok bool) {
	var blocks []string
	for _, s := range planSections {
		if body := sectionBody(edited, s); body != "" {
			blocks = append(blocks, s.Tag()+"\n"+body)
		}
	}
	if len(blocks) == 0 {
		return "", false
	}
	return StripNumeral(title) + "\n" + strings.Join(blocks, "\n"), true
}

// sectionBody is the trimmed text between the first tag of s and the next tag
func sectionBody(text string, s Section) string {
	loc := tagPatterns[s].FindStringIndex(text)
	if loc == nil {
		return ""
	}
	body := text[loc[1]:]
	if next := nextTag.FindStringIndex(body); next != nil {
		body = body[:next[0]]
	}
	return strings.TrimSpace(body)
}

// CombinePlan appends commit excerpts to the original plan, separated by blank lines
func CombinePlan(plan string, excerpts []string) string {
	combined := strings.TrimSpace(plan)
	if len(excerpts) > 0 {
		if combined != "" {
			combined += "\n\n"
		}
		combined += strings.Join(excerpts, "\n\n")
	}
	return strings.TrimSpace(combined)
}

// Document is the exported A/P text
func Document(assessment, plan string) string {
	return "A:\n" + assessment + "\n\nP:\n" + plan
}
