// Package interaction implements the traversal state machine for a pending
// clarification request: multi-question navigation, per-question answer
// accumulation, single/multi-select semantics, and expiration handling. It
// holds no I/O; the view layer drives it and the session controller submits
// its output.
package interaction

import (
	"strings"

	"studiochat/internal/domain"
)

// Phase is the traversal lifecycle. Expired is a sink reachable from any
// phase via the server timeout; Submitted ends the traversal normally.
type Phase int

const (
	PhaseViewing Phase = iota
	PhaseSubmitted
	PhaseExpired
)

// Traversal tracks navigation and selections across an interaction's
// questions. Each question independently accumulates its selected options.
type Traversal struct {
	questions []domain.Question
	phase     Phase
	index     int
	selected  [][]string // option IDs per question, in selection order
	otherText string
}

func New(it domain.Interaction) *Traversal {
	t := &Traversal{
		questions: it.Questions,
		selected:  make([][]string, len(it.Questions)),
	}
	if it.Expired {
		t.phase = PhaseExpired
	}
	return t
}

func (t *Traversal) Phase() Phase                 { return t.phase }
func (t *Traversal) Index() int                   { return t.index }
func (t *Traversal) Questions() []domain.Question { return t.questions }
func (t *Traversal) OtherText() string            { return t.otherText }

func (t *Traversal) Current() domain.Question {
	if t.index < 0 || t.index >= len(t.questions) {
		return domain.Question{}
	}
	return t.questions[t.index]
}

func (t *Traversal) IsSelected(qIdx int, optionID string) bool {
	if qIdx < 0 || qIdx >= len(t.selected) {
		return false
	}
	for _, id := range t.selected[qIdx] {
		if id == optionID {
			return true
		}
	}
	return false
}

func (t *Traversal) SelectionCount(qIdx int) int {
	if qIdx < 0 || qIdx >= len(t.selected) {
		return 0
	}
	return len(t.selected[qIdx])
}

// Select applies an option choice to the current question. Single-select
// replaces the selection and advances to the next question (the reported
// advance lets the view sequence its transition; any delay is cosmetic).
// Multi-select toggles membership and never advances. Interaction is
// disabled once expired or submitted.
func (t *Traversal) Select(optionID string) (advanced bool) {
	if t.phase != PhaseViewing || t.index >= len(t.questions) {
		return false
	}
	q := t.questions[t.index]
	if !hasOption(q, optionID) {
		return false
	}
	if q.MultiSelect {
		t.selected[t.index] = toggle(t.selected[t.index], optionID)
		return false
	}
	t.selected[t.index] = []string{optionID}
	if t.index < len(t.questions)-1 {
		t.index++
		return true
	}
	return false
}

// SelectAt selects the current question's option by zero-based position,
// backing the numeric keyboard shortcuts.
func (t *Traversal) SelectAt(pos int) (advanced bool) {
	q := t.Current()
	if pos < 0 || pos >= len(q.Options) {
		return false
	}
	return t.Select(q.Options[pos].ID)
}

func (t *Traversal) Next() {
	if t.phase == PhaseViewing && t.index < len(t.questions)-1 {
		t.index++
	}
}

func (t *Traversal) Prev() {
	if t.phase == PhaseViewing && t.index > 0 {
		t.index--
	}
}

func (t *Traversal) SetOtherText(s string) {
	if t.phase == PhaseSubmitted {
		return
	}
	t.otherText = s
}

// CanContinue reports whether the structured Continue action is enabled:
// a non-last question needs its own selection, the last question requires
// every question answered. Populated free text disables Continue so an
// unanswered structured question is never silently combined with free text.
func (t *Traversal) CanContinue() bool {
	if t.phase != PhaseViewing {
		return false
	}
	if strings.TrimSpace(t.otherText) != "" {
		return false
	}
	if t.index < len(t.questions)-1 {
		return len(t.selected[t.index]) > 0
	}
	for _, sel := range t.selected {
		if len(sel) == 0 {
			return false
		}
	}
	return true
}

// Expire moves the traversal to its sink state. Selections are kept; they
// can still be folded into a plain chat message via Transcript.
func (t *Traversal) Expire() {
	if t.phase != PhaseSubmitted {
		t.phase = PhaseExpired
	}
}

// Submit finalizes the traversal and returns one answer string per answered
// question, keyed by question text. It is accepted only from the last
// question with every question answered, or on the free-text path with
// populated other text. Repeated calls return ok=false, which also guards
// a double-click racing a view transition.
func (t *Traversal) Submit() (answers map[string]string, ok bool) {
	if t.phase != PhaseViewing {
		return nil, false
	}
	structured := t.index == len(t.questions)-1 && t.CanContinue()
	freeText := strings.TrimSpace(t.otherText) != ""
	if !structured && !freeText {
		return nil, false
	}
	t.phase = PhaseSubmitted
	return t.ComposeAnswers(), true
}

// ComposeAnswers formats each question's answer by joining its selected
// option labels with ", ". Free-text other input attaches to the last
// question: appended as ", Other: <text>", or standing alone when that
// question has no selections. Unanswered questions are omitted.
func (t *Traversal) ComposeAnswers() map[string]string {
	answers := make(map[string]string)
	other := strings.TrimSpace(t.otherText)
	for i, q := range t.questions {
		answer := strings.Join(t.labels(i), ", ")
		if i == len(t.questions)-1 && other != "" {
			if answer == "" {
				answer = "Other: " + other
			} else {
				answer += ", Other: " + other
			}
		}
		if answer == "" {
			continue
		}
		answers[q.Question] = answer
	}
	return answers
}

// Transcript renders accumulated answers plus any free text as a
// newline-joined "question: answer" block, for sending as an ordinary chat
// message once the structured channel has expired.
func (t *Traversal) Transcript() string {
	answers := t.ComposeAnswers()
	var lines []string
	for _, q := range t.questions {
		if a, ok := answers[q.Question]; ok {
			lines = append(lines, q.Question+": "+a)
		}
	}
	return strings.Join(lines, "\n")
}

func (t *Traversal) labels(qIdx int) []string {
	q := t.questions[qIdx]
	var out []string
	for _, id := range t.selected[qIdx] {
		for _, opt := range q.Options {
			if opt.ID == id {
				out = append(out, opt.Label)
				break
			}
		}
	}
	return out
}

func hasOption(q domain.Question, optionID string) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

func toggle(sel []string, id string) []string {
	for i, s := range sel {
		if s == id {
			return append(sel[:i], sel[i+1:]...)
		}
	}
	return append(sel, id)
}
