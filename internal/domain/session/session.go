// Package session implements the per-user assignment session.
//
// A Session owns the unassigned order pools, the staging cart, the live
// problem list and the commit ledger. The live list is never edited in place
// on undo: it is rebuilt from the baseline snapshot by replaying the ledger.
package session

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/drfirst/go-soap/internal/orderlog"
	"github.com/drfirst/go-soap/internal/soapnote"
)

// TitlePolicy decides what happens when a new problem repeats a live title
type TitlePolicy int

const (
	// AllowDuplicateTitles keeps both problems; replay then merges into the first match
	AllowDuplicateTitles TitlePolicy = iota
	// RejectDuplicateTitles refuses the commit with ErrDuplicateTitle
	RejectDuplicateTitles
)

// Option configures a Session
type Option func(*Session)

// WithTitlePolicy sets the duplicate title rule
func WithTitlePolicy(p TitlePolicy) Option {
	return func(s *Session) { s.titles = p }
}

// Session represents one user's working state
type Session struct {
	id        string
	createdAt time.Time
	updatedAt time.Time
	titles    TitlePolicy

	baseline []soapnote.Problem
	problems []soapnote.Problem
	plan     string

	medications []orderlog.Medication
	orders      []orderlog.Order
	entryCount  int
	staged      map[soapnote.Section][]StagedItem

	commits      []*Commit
	nextCommitID int
}

// New parses the note and order logs into a fresh session.
// At least one of them must carry text.
func New(id, note string, logs []string, opts ...Option) (*Session, error) {
	lines := orderlog.SplitLines(logs...)
	hasNote := strings.TrimSpace(note) != ""
	if !hasNote && len(lines) == 0 {
		return nil, ErrMissingInput
	}

	now := time.Now().UTC()
	s := &Session{
		id:           id,
		createdAt:    now,
		updatedAt:    now,
		staged:       make(map[soapnote.Section][]StagedItem),
		nextCommitID: 1,
	}
	for _, opt := range opts {
		opt(s)
	}

	if len(lines) > 0 {
		s.medications, s.orders, s.entryCount = orderlog.Extract(lines)
	}
	if hasNote {
		s.baseline, s.plan = soapnote.ParseHistory(note)
	}
	s.problems = slices.Clone(s.baseline)

	return s, nil
}

// ID returns the session ID
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was loaded
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the time of the last mutation
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }

// EntryCount returns the number of log entries parsed at load
func (s *Session) EntryCount() int { return s.entryCount }

// Problems returns a copy of the live problem list
func (s *Session) Problems() []soapnote.Problem { return slices.Clone(s.problems) }

// Baseline returns a copy of the problems parsed from the original note
func (s *Session) Baseline() []soapnote.Problem { return slices.Clone(s.baseline) }

// Medications returns a copy of the unassigned medication pool
func (s *Session) Medications() []orderlog.Medication { return slices.Clone(s.medications) }

// Orders returns a copy of the unassigned other-order pool
func (s *Session) Orders() []orderlog.Order { return slices.Clone(s.orders) }

// Staged returns a copy of the staging cart
func (s *Session) Staged() map[soapnote.Section][]StagedItem { return cloneStaged(s.staged) }

// Pending reports whether unassigned items remain in either pool
func (s *Session) Pending() bool {
	return len(s.medications) > 0 || len(s.orders) > 0
}

// Stage moves a pool item into a section of the cart
func (s *Session) Stage(kind ItemKind, name string, section soapnote.Section) error {
	if !section.Valid() {
		return fmt.Errorf("stage into %q: %w", section, ErrInvalidItem)
	}

	var item StagedItem
	switch kind {
	case KindMedication:
		i := slices.IndexFunc(s.medications, func(m orderlog.Medication) bool { return m.Name == name })
		if i < 0 {
			return fmt.Errorf("stage medication %q: %w", name, ErrItemNotFound)
		}
		item = medicationItem(s.medications[i])
		s.medications = slices.Delete(s.medications, i, i+1)
	case KindOther:
		i := slices.IndexFunc(s.orders, func(o orderlog.Order) bool { return o.Name == name })
		if i < 0 {
			return fmt.Errorf("stage order %q: %w", name, ErrItemNotFound)
		}
		item = orderItem(s.orders[i])
		s.orders = slices.Delete(s.orders, i, i+1)
	default:
		return fmt.Errorf("stage kind %q: %w", kind, ErrInvalidItem)
	}

	s.staged[section] = append(s.staged[section], item)
	s.touch()
	return nil
}

// Unstage returns a cart item to its pool
func (s *Session) Unstage(kind ItemKind, name string, section soapnote.Section) error {
	if !section.Valid() {
		return fmt.Errorf("unstage from %q: %w", section, ErrInvalidItem)
	}

	items := s.staged[section]
	i := slices.IndexFunc(items, func(it StagedItem) bool { return it.Kind == kind && it.Name() == name })
	if i < 0 {
		return fmt.Errorf("unstage %s %q: %w", kind, name, ErrItemNotFound)
	}

	item := items[i]
	s.staged[section] = slices.Delete(items, i, i+1)
	s.restore(item)
	s.sortPools()
	s.touch()
	return nil
}

// restore puts an item back into its pool unless an equal item is already there
func (s *Session) restore(item StagedItem) {
	switch {
	case item.Medication != nil:
		if !slices.Contains(s.medications, *item.Medication) {
			s.medications = append(s.medications, *item.Medication)
		}
	case item.Order != nil:
		if !slices.Contains(s.orders, *item.Order) {
			s.orders = append(s.orders, *item.Order)
		}
	}
}

func (s *Session) sortPools() {
	orderlog.SortMedications(s.medications)
	orderlog.SortOrders(s.orders)
}

// Draft is the editing view for one target problem
type Draft struct {
	Target string `json:"target"`
	Base   string `json:"base"`
	soapnote.Draft
}

// Draft prepares the update text for target from the current cart.
// An empty target means a new problem.
func (s *Session) Draft(target string) (*Draft, error) {
	base, err := s.baseText(target)
	if err != nil {
		return nil, err
	}

	staged := make(map[soapnote.Section][]soapnote.Item, len(s.staged))
	for section, items := range s.staged {
		for _, it := range items {
			staged[section] = append(staged[section], it.draftItem())
		}
	}

	return &Draft{
		Target: target,
		Base:   base,
		Draft:  soapnote.DraftUpdates(staged),
	}, nil
}

func (s *Session) baseText(target string) (string, error) {
	if target == "" {
		return soapnote.NewProblemBase, nil
	}
	i := s.problemIndex(target)
	if i < 0 {
		return "", fmt.Errorf("problem %q: %w", target, ErrProblemNotFound)
	}
	return s.problems[i].Content, nil
}

// problemIndex returns the first live problem with the title, or -1
func (s *Session) problemIndex(title string) int {
	return slices.IndexFunc(s.problems, func(p soapnote.Problem) bool { return p.Title == title })
}

// Assessment renders the live problems as the renumbered A block
func (s *Session) Assessment() string {
	return soapnote.Renumber(s.problems)
}

// Plan renders the original plan followed by each commit's plan excerpt
func (s *Session) Plan() string {
	var excerpts []string
	for _, c := range s.commits {
		if excerpt, ok := soapnote.PlanExcerpt(c.Title, c.Content); ok {
			excerpts = append(excerpts, excerpt)
		}
	}
	return soapnote.CombinePlan(s.plan, excerpts)
}

// Document renders the full A/P export
func (s *Session) Document() string {
	return soapnote.Document(s.Assessment(), s.Plan())
}

// View is the serializable snapshot of a session
type View struct {
	ID          string                            `json:"id"`
	Medications []orderlog.Medication             `json:"medications"`
	Orders      []orderlog.Order                  `json:"orders"`
	Problems    []soapnote.Problem                `json:"problems"`
	Staged      map[soapnote.Section][]StagedItem `json:"staged"`
	Commits     []Commit                          `json:"commits"`
	EntryCount  int                               `json:"entry_count"`
	Pending     bool                              `json:"pending"`
	CreatedAt   time.Time                         `json:"created_at"`
	UpdatedAt   time.Time                         `json:"updated_at"`
}

// View snapshots the session
func (s *Session) View() *View {
	return &View{
		ID:          s.id,
		Medications: s.Medications(),
		Orders:      s.Orders(),
		Problems:    s.Problems(),
		Staged:      s.Staged(),
		Commits:     s.Commits(),
		EntryCount:  s.entryCount,
		Pending:     s.Pending(),
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
	}
}

func (s *Session) touch() {
	s.updatedAt = time.Now().UTC()
}
