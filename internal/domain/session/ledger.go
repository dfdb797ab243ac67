package session

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/drfirst/go-soap/internal/soapnote"
)

// NoContentPlaceholder is stored for a commit whose edited text was blank
const NoContentPlaceholder = "(no new content)"

// Commit is an immutable record of one merge into the problem list
type Commit struct {
	ID        int                               `json:"id"`
	Title     string                            `json:"title"`
	IsNew     bool                              `json:"is_new"`
	Content   string                            `json:"content"`
	FullText  string                            `json:"full_text"`
	UsedItems map[soapnote.Section][]StagedItem `json:"used_items"`
	CreatedAt time.Time                         `json:"created_at"`
}

// Commits returns the ledger in commit order
func (s *Session) Commits() []Commit {
	out := make([]Commit, 0, len(s.commits))
	for _, c := range s.commits {
		out = append(out, *c)
	}
	return out
}

// Commit merges edited into the target problem and records the result.
// An empty target creates a new problem. The cart is consumed by the commit.
func (s *Session) Commit(target, edited string) (*Commit, error) {
	base, err := s.baseText(target)
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	merged := soapnote.Merge(base, edited)
	isNew := target == ""
	title := target
	if isNew {
		title = s.newProblemTitle(merged)
		if s.titles == RejectDuplicateTitles && s.problemIndex(title) >= 0 {
			return nil, fmt.Errorf("commit %q: %w", title, ErrDuplicateTitle)
		}
	}

	content := edited
	if strings.TrimSpace(edited) == "" {
		content = NoContentPlaceholder
	}

	c := &Commit{
		ID:        s.nextCommitID,
		Title:     title,
		IsNew:     isNew,
		Content:   content,
		FullText:  merged,
		UsedItems: cloneStaged(s.staged),
		CreatedAt: time.Now().UTC(),
	}

	s.apply(c)
	s.commits = append(s.commits, c)
	s.nextCommitID++
	s.staged = make(map[soapnote.Section][]StagedItem)
	s.touch()

	return c, nil
}

// newProblemTitle takes the first line of the merged text, or a positional
// name when that line is too short to identify the problem.
func (s *Session) newProblemTitle(merged string) string {
	first := strings.SplitN(strings.TrimSpace(merged), "\n", 2)[0]
	if utf8.RuneCountInString(first) > 2 {
		return first
	}
	return fmt.Sprintf("New Problem %d", len(s.problems)+1)
}

// DeleteCommit removes a commit, returns its items to the pools and rebuilds
// the problem list. It reports false when no commit has the id.
func (s *Session) DeleteCommit(id int) bool {
	i := slices.IndexFunc(s.commits, func(c *Commit) bool { return c.ID == id })
	if i < 0 {
		return false
	}

	c := s.commits[i]
	for _, section := range soapnote.Sections {
		for _, item := range c.UsedItems[section] {
			s.restore(item)
		}
	}
	s.sortPools()

	s.commits = slices.Delete(s.commits, i, i+1)
	s.Rebuild()
	s.touch()
	return true
}

// Rebuild resets the live problems to the baseline and replays the ledger
func (s *Session) Rebuild() {
	s.problems = slices.Clone(s.baseline)
	for _, c := range s.commits {
		s.apply(c)
	}
}

// apply applies a commit to the live problem list
func (s *Session) apply(c *Commit) {
	if c.IsNew {
		s.problems = append(s.problems, soapnote.Problem{Title: c.Title, Content: c.FullText})
		return
	}
	if i := s.problemIndex(c.Title); i >= 0 {
		s.problems[i].Content = soapnote.Merge(s.problems[i].Content, c.Content)
	}
}
