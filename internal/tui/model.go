// Package tui is the terminal front-end for a studio session: a transcript
// viewport, a message input, and the interaction widget layered over the
// traversal state machine.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"studiochat/internal/domain"
	"studiochat/internal/interaction"
	"studiochat/internal/search"
	"studiochat/internal/session"
)

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("48"))
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	expiredStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

type (
	stateChangedMsg struct{}
	turnDoneMsg     struct{ err error }
	answerDoneMsg   struct{ err error }
	flashClearMsg   struct{}
)

// Model wires one session controller to the terminal.
type Model struct {
	ctrl     *session.Controller
	searcher domain.SearchService
	logger   *slog.Logger

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	// interaction widget
	trav      *interaction.Traversal
	travID    string // interaction id the traversal was built for
	optCursor int
	otherMode bool // input captures free-text "other" instead of chat text
	flash     bool // brief highlight after a single-select auto-advance

	// pendingAttach holds already-uploaded references queued for the next
	// outgoing message; consumed by the first send.
	pendingAttach []domain.Attachment

	searchLimit int
	autoAdvance time.Duration
	updates     chan struct{}
	width       int
	height      int
	ready       bool
	quitting    bool
}

// Config for the TUI.
type Config struct {
	Controller  *session.Controller
	Searcher    domain.SearchService
	Logger      *slog.Logger
	SearchLimit int
	AutoAdvance time.Duration

	// InitialAttachments are sent with the first message of the session.
	InitialAttachments []domain.Attachment
}

func New(cfg Config) *Model {
	ta := textarea.New()
	ta.Placeholder = "Describe what to generate… (@path and topic:id mentions resolve automatically)"
	ta.SetHeight(3)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctrl:          cfg.Controller,
		searcher:      cfg.Searcher,
		logger:        cfg.Logger,
		input:         ta,
		spinner:       sp,
		pendingAttach: cfg.InitialAttachments,
		searchLimit:   cfg.SearchLimit,
		autoAdvance:   cfg.AutoAdvance,
		updates:       make(chan struct{}, 1),
	}

	// Coalesce controller notifications; the render reads a fresh snapshot
	// anyway, so dropped wakeups lose nothing.
	cfg.Controller.Subscribe(func() {
		select {
		case m.updates <- struct{}{}:
		default:
		}
	})
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForUpdate(), m.spinner.Tick)
}

func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		<-m.updates
		return stateChangedMsg{}
	}
}

func (m *Model) sendCmd(text string, attachments []domain.Attachment) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var mentions []domain.Mention
		if m.searcher != nil {
			mentions = search.Resolve(ctx, m.searcher, text, m.searchLimit, m.logger)
		}
		err := m.ctrl.SendMessage(ctx, text, session.SendOptions{
			Attachments: attachments,
			Mentions:    mentions,
		})
		return turnDoneMsg{err: err}
	}
}

func (m *Model) answerCmd(ans domain.Answer) tea.Cmd {
	return func() tea.Msg {
		return answerDoneMsg{err: m.ctrl.AnswerInteraction(context.Background(), ans)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-7)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 7
		}
		m.input.SetWidth(msg.Width - 2)
		m.renderTranscript()

	case stateChangedMsg:
		m.syncInteraction()
		m.renderTranscript()
		cmds = append(cmds, m.waitForUpdate())

	case turnDoneMsg, answerDoneMsg:
		m.syncInteraction()
		m.renderTranscript()

	case flashClearMsg:
		m.flash = false

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, tea.Batch(append(cmds, cmd)...)
		}
	}

	// Remaining input goes to the focused widgets.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey intercepts global and interaction-widget keys. Widget navigation
// is only active while the text input is not capturing the keystroke as
// text, so typing never fights the option list.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return tea.Quit, true
	case "ctrl+r":
		m.ctrl.Reset(context.Background())
		m.trav = nil
		m.travID = ""
		return nil, true
	}

	snap := m.ctrl.Snapshot()

	if m.trav != nil && snap.PendingInteraction != nil {
		return m.handleInteractionKey(msg, snap)
	}

	if msg.String() == "enter" && !snap.Streaming {
		text := strings.TrimSpace(m.input.Value())
		attachments := m.pendingAttach
		if text == "" && len(attachments) == 0 {
			return nil, true
		}
		m.pendingAttach = nil
		m.input.Reset()
		return m.sendCmd(text, attachments), true
	}
	return nil, false
}

func (m *Model) handleInteractionKey(msg tea.KeyMsg, snap session.Snapshot) (tea.Cmd, bool) {
	if m.otherMode {
		switch msg.String() {
		case "esc":
			m.otherMode = false
			m.trav.SetOtherText("")
			m.input.Reset()
			return nil, true
		case "enter":
			m.trav.SetOtherText(m.input.Value())
			answers, ok := m.trav.Submit()
			if !ok {
				return nil, true
			}
			m.otherMode = false
			m.input.Reset()
			return m.answerCmd(domain.Answer{Answers: answers}), true
		}
		m.trav.SetOtherText(m.input.Value())
		return nil, false // let the textarea consume the keystroke
	}

	if m.trav.Phase() == interaction.PhaseExpired {
		switch msg.String() {
		case "s":
			// Skip All: the structured channel is gone, drop it.
			m.ctrl.DismissInteraction()
			m.trav = nil
			m.travID = ""
			return nil, true
		case "enter":
			// Fold accumulated answers into an ordinary chat message.
			transcript := m.trav.Transcript()
			m.ctrl.DismissInteraction()
			m.trav = nil
			m.travID = ""
			if transcript == "" {
				return nil, true
			}
			return m.sendCmd(transcript, nil), true
		}
		return nil, true
	}

	q := m.trav.Current()
	switch msg.String() {
	case "up", "k":
		if m.optCursor > 0 {
			m.optCursor--
		} else if m.trav.Index() > 0 {
			m.trav.Prev()
			m.optCursor = len(m.trav.Current().Options) - 1
		}
		return nil, true
	case "down", "j":
		if m.optCursor < len(q.Options)-1 {
			m.optCursor++
		} else if m.trav.Index() < len(m.trav.Questions())-1 {
			m.trav.Next()
			m.optCursor = 0
		}
		return nil, true
	case "left", "h":
		m.trav.Prev()
		m.optCursor = 0
		return nil, true
	case "right", "l":
		m.trav.Next()
		m.optCursor = 0
		return nil, true
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		pos := int(msg.String()[0] - '1')
		return m.afterSelect(m.trav.SelectAt(pos)), true
	case " ", "space":
		if m.optCursor < len(q.Options) {
			return m.afterSelect(m.trav.Select(q.Options[m.optCursor].ID)), true
		}
		return nil, true
	case "o":
		m.otherMode = true
		m.input.Reset()
		m.input.Placeholder = "Other…"
		return nil, true
	case "enter":
		if m.trav.Index() < len(m.trav.Questions())-1 {
			if m.trav.CanContinue() {
				m.trav.Next()
				m.optCursor = 0
			}
			return nil, true
		}
		answers, ok := m.trav.Submit()
		if !ok {
			return nil, true
		}
		return m.answerCmd(domain.Answer{Answers: answers}), true
	}
	return nil, true
}

// afterSelect schedules the post-advance highlight flash. The delay is
// cosmetic sequencing only; submission is debounced in the traversal itself.
func (m *Model) afterSelect(advanced bool) tea.Cmd {
	if !advanced {
		return nil
	}
	m.optCursor = 0
	if m.autoAdvance <= 0 {
		return nil
	}
	m.flash = true
	return tea.Tick(m.autoAdvance, func(time.Time) tea.Msg { return flashClearMsg{} })
}

// syncInteraction rebuilds or expires the traversal when the pending
// interaction changes underneath the widget.
func (m *Model) syncInteraction() {
	snap := m.ctrl.Snapshot()
	it := snap.PendingInteraction
	if it == nil {
		m.trav = nil
		m.travID = ""
		m.otherMode = false
		return
	}
	if it.InteractionID != m.travID {
		m.trav = interaction.New(*it)
		m.travID = it.InteractionID
		m.optCursor = 0
		m.otherMode = false
		return
	}
	if it.Expired && m.trav.Phase() != interaction.PhaseExpired {
		m.trav.Expire()
	}
}

func (m *Model) renderTranscript() {
	if !m.ready {
		return
	}
	snap := m.ctrl.Snapshot()
	var b strings.Builder
	for _, msg := range snap.Messages {
		switch msg.Role {
		case domain.RoleUser:
			b.WriteString(userStyle.Render("you ▸ ") + msg.Content + "\n")
			for _, a := range msg.Attachments {
				b.WriteString(dimStyle.Render(fmt.Sprintf("  ⎘ %s (%s)\n", a.Name, a.Type)))
			}
		case domain.RoleAssistant:
			b.WriteString(assistantStyle.Render(msg.Content) + "\n")
		}
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading…"
	}

	snap := m.ctrl.Snapshot()
	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.trav != nil && snap.PendingInteraction != nil {
		b.WriteString(m.viewInteraction())
	} else {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	status := dimStyle.Render(fmt.Sprintf("%s/%s", snap.StudioType, snap.TopicID))
	if n := len(m.pendingAttach); n > 0 {
		status += "  " + dimStyle.Render(fmt.Sprintf("%d attachment(s) queued", n))
	}
	if snap.Streaming {
		status += "  " + m.spinner.View() + dimStyle.Render("generating")
	}
	if n := len(snap.ToolEvents); n > 0 {
		last := snap.ToolEvents[n-1]
		status += "  " + dimStyle.Render(fmt.Sprintf("tools: %d (last %s %s)", n, last.Type, last.ToolName))
	}
	b.WriteString(status + "\n")

	if snap.Err != "" {
		b.WriteString(errStyle.Render("error: "+snap.Err) + "\n")
	}
	return b.String()
}

func (m *Model) viewInteraction() string {
	var b strings.Builder
	trav := m.trav
	qs := trav.Questions()
	q := trav.Current()

	if q.Header != "" {
		b.WriteString(headerStyle.Render(q.Header) + "\n")
	}
	b.WriteString(fmt.Sprintf("%s  %s\n", headerStyle.Render(fmt.Sprintf("[%d/%d]", trav.Index()+1, len(qs))), q.Question))

	for i, opt := range q.Options {
		marker := "  "
		if i == m.optCursor && trav.Phase() == interaction.PhaseViewing {
			marker = cursorStyle.Render("▸ ")
		}
		check := "( )"
		if q.MultiSelect {
			check = "[ ]"
		}
		if trav.IsSelected(trav.Index(), opt.ID) {
			if q.MultiSelect {
				check = selectedStyle.Render("[x]")
			} else {
				check = selectedStyle.Render("(•)")
			}
		}
		line := fmt.Sprintf("%s%s %d. %s", marker, check, i+1, opt.Label)
		if opt.Description != "" {
			line += dimStyle.Render("  — " + opt.Description)
		}
		b.WriteString(line + "\n")
	}

	switch {
	case trav.Phase() == interaction.PhaseExpired:
		b.WriteString(expiredStyle.Render("expired — [enter] send answers as message · [s] skip all") + "\n")
	case m.otherMode:
		b.WriteString(m.input.View() + "\n")
		b.WriteString(dimStyle.Render("[enter] send free-text answer · [esc] back to options") + "\n")
	default:
		hint := "[1-9/space] select · [↑↓] move · [o] other"
		if trav.CanContinue() {
			if trav.Index() == len(qs)-1 {
				hint += " · [enter] submit"
			} else {
				hint += " · [enter] continue"
			}
		}
		b.WriteString(dimStyle.Render(hint) + "\n")
	}
	return b.String()
}
