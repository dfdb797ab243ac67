// Package soapnote parses the assessment and plan of a prior SOAP note and
// merges tagged section updates back into problem text.
package soapnote

import (
	"fmt"
	"regexp"
)

// Section is one of the narrative subsections of a problem
type Section string

const (
	SectionExam              Section = "Exam"
	SectionPastTreatment     Section = "Past treatment"
	SectionCurrentManagement Section = "Current Management"
	SectionConsult           Section = "Consult"
)

// Sections lists every section in merge order.
var Sections = []Section{
	SectionExam,
	SectionPastTreatment,
	SectionCurrentManagement,
	SectionConsult,
}

// tagPatterns find a section tag in note text, tolerating case and inner spacing
var tagPatterns = func() map[Section]*regexp.Regexp {
	m := make(map[Section]*regexp.Regexp, len(Sections))
	for _, s := range Sections {
		m[s] = regexp.MustCompile(`(?i)\[\s*` + regexp.QuoteMeta(string(s)) + `\s*\]`)
	}
	return m
}()

// Tag returns the bracketed header, e.g. [Exam]
func (s Section) Tag() string {
	return "[" + string(s) + "]"
}

// Valid reports whether s is a known section
func (s Section) Valid() bool {
	_, ok := tagPatterns[s]
	return ok
}

// ParseSection accepts either the bare name or the bracketed tag.
func ParseSection(v string) (Section, error) {
	for _, s := range Sections {
		if v == string(s) || v == s.Tag() {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown section %q", v)
}

// sectionForHeader returns the section whose tag exactly equals the trimmed line
func sectionForHeader(line string) (Section, bool) {
	for _, s := range Sections {
		if line == s.Tag() {
			return s, true
		}
	}
	return "", false
}
