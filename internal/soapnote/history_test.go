package soapnote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHistory_Sample(t *testing.T) {
	problems, plan := ParseHistory("A:\n1. Fever\nongoing workup\nP:\nContinue antibiotics")

	require.Len(t, problems, 1)
	assert.Equal(t, Problem{Title: "1. Fever", Content: "1. Fever\nongoing workup"}, problems[0])
	assert.Equal(t, "Continue antibiotics", plan)
}

func TestParseHistory_FullNote(t *testing.T) {
	note := "S: stable\n" +
		"O: afebrile\n" +
		"A:\n" +
		"1. Pneumonia\n" +
		"[Current Management]\n" +
		"- Augmentin\n" +
		"2. DM\n" +
		"controlled\n" +
		"P:\n" +
		"1. Continue abx\n" +
		"2. Insulin"

	problems, plan := ParseHistory(note)

	assert.Equal(t, []Problem{
		{Title: "1. Pneumonia", Content: "1. Pneumonia\n[Current Management]\n- Augmentin"},
		{Title: "2. DM", Content: "2. DM\ncontrolled"},
	}, problems)
	assert.Equal(t, "1. Continue abx\n2. Insulin", plan)
}

func TestParseHistory_MarkersAreCaseInsensitiveAndIndented(t *testing.T) {
	problems, plan := ParseHistory("  a:\n1. HTN\n  p: keep meds")

	assert.Equal(t, []Problem{{Title: "1. HTN", Content: "1. HTN"}}, problems)
	assert.Equal(t, "keep meds", plan)
}

func TestParseHistory_UnnumberedAssessmentIsOneProblem(t *testing.T) {
	problems, plan := ParseHistory("A: chest pain\nrule out ACS\nP:")

	assert.Equal(t, []Problem{{Title: "chest pain", Content: "chest pain\nrule out ACS"}}, problems)
	assert.Empty(t, plan)
}

func TestParseHistory_NoMarkers(t *testing.T) {
	problems, plan := ParseHistory("free text without sections")

	assert.Empty(t, problems)
	assert.Empty(t, plan)
}

func TestParseHistory_PlanOnly(t *testing.T) {
	problems, plan := ParseHistory("P:\nDischarge tomorrow\n")

	assert.Empty(t, problems)
	assert.Equal(t, "Discharge tomorrow", plan)
}
