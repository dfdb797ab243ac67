// Package orderlog turns raw hospital order logs into classified, grouped order items.
package orderlog

import "strings"

// ActionCode is the order action printed at the start of a log line
type ActionCode string

const (
	ActionNew       ActionCode = "NEW"
	ActionDC        ActionCode = "DC"
	ActionDCDeath   ActionCode = "DC-D"
	ActionDCChange  ActionCode = "DC-C"
	ActionDCExpired ActionCode = "DC-E"
	ActionChange    ActionCode = "CHG"
	ActionExtend    ActionCode = "EXTN"
	ActionNone      ActionCode = "Active"
)

// actionCodes lists the codes recognized as the first token of an order line
var actionCodes = map[string]ActionCode{
	"NEW":  ActionNew,
	"DC":   ActionDC,
	"DC-D": ActionDCDeath,
	"DC-C": ActionDCChange,
	"DC-E": ActionDCExpired,
	"CHG":  ActionChange,
	"EXTN": ActionExtend,
}

// Discontinues reports whether the action stops the order
func (a ActionCode) Discontinues() bool {
	return strings.HasPrefix(string(a), "DC")
}

// Status is the state of a medication after its latest action
type Status string

const (
	StatusActive       Status = "Active"
	StatusDiscontinued Status = "Discontinued"
)

// Transition returns the state reached from s after action a.
// Any DC* action moves to Discontinued; every other action (re)activates.
func (s Status) Transition(a ActionCode) Status {
	if a.Discontinues() {
		return StatusDiscontinued
	}
	return StatusActive
}

// Entry is one logical order extracted from the log, possibly spanning several lines
type Entry struct {
	Timestamp    *string    `json:"timestamp"`
	RawLine      string     `json:"raw_line"`
	Name         string     `json:"name"`
	Details      string     `json:"details"`
	Action       ActionCode `json:"action"`
	Notes        []string   `json:"notes,omitempty"`
	IsMedication bool       `json:"is_medication"`
}

func newEntry(timestamp *string, raw, content string, action ActionCode) *Entry {
	return &Entry{
		Timestamp: timestamp,
		RawLine:   raw,
		Name:      content,
		Details:   content,
		Action:    action,
	}
}

// Medication is the aggregated view of every entry sharing one canonical name
type Medication struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Display string `json:"display"`
	Details string `json:"details"`
}

// Order is a non-medication order (specimen, exam, consult, ...)
type Order struct {
	Name    string `json:"name"`
	Display string `json:"display"`
	Details string `json:"details"`
}
