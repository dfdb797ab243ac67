package orderlog

import (
	"regexp"
	"strings"
)

var (
	// specimenPattern marks lab specimens, optionally followed by the EMR marker
	specimenPattern = regexp.MustCompile(`\b(B|U|S|BV)\b|\b(B|U|S|BV)\s*\*:EMR`)

	// medicationSignals are frequency, route and dose-unit cues; any hit means medication
	medicationSignals = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bQ\d+[HM]\b`),
		regexp.MustCompile(`(?i)\bQD\b`),
		regexp.MustCompile(`(?i)\bBID\b`),
		regexp.MustCompile(`(?i)\bTID\b`),
		regexp.MustCompile(`(?i)\bQID\b`),
		regexp.MustCompile(`(?i)\bONCE\b`),
		regexp.MustCompile(`(?i)\bPRN\b`),
		regexp.MustCompile(`(?i)\bIV\b`),
		regexp.MustCompile(`(?i)\bIVF\b`),
		regexp.MustCompile(`(?i)\bPO\b`),
		regexp.MustCompile(`(?i)\bTOPI\b`),
		regexp.MustCompile(`(?i)\d+(mg|g|gm|ml|mL|mcg|vial|tab|amp|cap|iu)\b`),
	}
)

// Classify labels the entry as medication or not and returns it.
// Rules are evaluated in order and the first match wins.
func Classify(e *Entry) *Entry {
	e.IsMedication = isMedication(e)
	return e
}

// ClassifyAll classifies every entry in place
func ClassifyAll(entries []*Entry) []*Entry {
	for _, e := range entries {
		Classify(e)
	}
	return entries
}

func isMedication(e *Entry) bool {
	if strings.HasPrefix(e.Name, ".") {
		return false
	}

	text := e.Details + " " + strings.Join(e.Notes, " ")
	if specimenPattern.MatchString(text) {
		return false
	}

	for _, signal := range medicationSignals {
		if signal.MatchString(text) {
			return true
		}
	}
	return false
}
