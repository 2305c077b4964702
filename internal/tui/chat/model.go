// Package chat implements the interactive chat screen.
//
// The bubbletea Update loop is the interactive context: the coordinator's
// completions arrive as DispatchMsg values and run inside Update, so the
// transcript is only ever touched from that goroutine.
package chat

import (
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/llama-chat/llama-chat/internal/conversation"
	"github.com/llama-chat/llama-chat/internal/inference"
	"github.com/llama-chat/llama-chat/internal/session"
	"github.com/llama-chat/llama-chat/internal/ui"
)

const (
	minInputLines = 1
	maxInputLines = 6
)

// DispatchMsg carries a closure posted by the coordinator.
type DispatchMsg func()

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramPoster delivers coordinator callbacks to a program's Update loop.
// The coordinator has to exist before the program does, so the program is
// attached afterwards.
type ProgramPoster struct {
	mu     sync.Mutex
	sender Sender
}

// Attach sets the program that receives posted closures.
func (p *ProgramPoster) Attach(s Sender) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sender = s
}

// Post implements inference.Poster. Closures posted before Attach are
// dropped.
func (p *ProgramPoster) Post(fn func()) {
	p.mu.Lock()
	s := p.sender
	p.mu.Unlock()
	if s != nil {
		s.Send(DispatchMsg(fn))
	}
}

// Options configures the chat screen.
type Options struct {
	Store       *conversation.Store
	Coordinator *inference.Coordinator
	// Archiver is set when the session is being archived; /export then
	// includes the session details.
	Archiver *session.Archiver
	Welcome  string
	Logger   *zap.Logger
	Styles   *ui.Styles
}

// Model is the bubbletea model for the chat screen.
type Model struct {
	store    *conversation.Store
	coord    *inference.Coordinator
	archiver *session.Archiver
	logger   *zap.Logger
	styles   *ui.Styles
	welcome  string

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool

	status      string
	suggestions []Command
	selected    int
	spinning    bool
	quitting    bool

	// rendered caches turn output by sequence for the current width
	rendered    map[uint64]string
	renderWidth int
}

// New creates the chat model.
func New(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	styles := opts.Styles
	if styles == nil {
		styles = ui.DefaultStyles()
	}

	ta := textarea.New()
	ta.Placeholder = "Type a message… (/help for commands)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.Prompt = ui.PromptIcon + " "
	ta.SetHeight(minInputLines)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Accent

	return &Model{
		store:    opts.Store,
		coord:    opts.Coordinator,
		archiver: opts.Archiver,
		logger:   logger.Named("chat"),
		styles:   styles,
		welcome:  opts.Welcome,
		textarea: ta,
		spinner:  sp,
		rendered: make(map[uint64]string),
	}
}

// Quitting reports whether the user asked to leave.
func (m *Model) Quitting() bool {
	return m.quitting
}

func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.update(msg)
	m.layout()
	return model, cmd
}

func (m *Model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = newViewport(msg.Width, msg.Height)
			m.ready = true
		}
		m.textarea.SetWidth(max(msg.Width-4, 10))
		m.layout()
		m.refresh()
		return m, nil

	case DispatchMsg:
		msg()
		m.refresh()
		if m.coord.State() != inference.StateDispatching {
			m.spinning = false
		}
		return m, nil

	case spinner.TickMsg:
		if !m.spinning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyEsc:
		if len(m.suggestions) > 0 {
			m.suggestions = nil
			return m, nil
		}
		if _, ok := m.coord.Pending(); ok {
			return m.cancelPending()
		}
		m.status = ""
		return m, nil

	case tea.KeyTab:
		if len(m.suggestions) > 0 {
			m.textarea.SetValue("/" + m.suggestions[m.selected].Name + " ")
			m.textarea.CursorEnd()
			m.suggestions = nil
		}
		return m, nil

	case tea.KeyUp, tea.KeyDown:
		if len(m.suggestions) > 0 {
			if msg.Type == tea.KeyUp {
				m.selected = (m.selected - 1 + len(m.suggestions)) % len(m.suggestions)
			} else {
				m.selected = (m.selected + 1) % len(m.suggestions)
			}
			return m, nil
		}

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyEnter:
		if msg.Alt {
			break
		}
		value := m.textarea.Value()
		if len(m.suggestions) > 0 && !strings.ContainsAny(strings.TrimSpace(value), " \n") {
			value = "/" + m.suggestions[m.selected].Name
		}
		return m.submit(value)
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.updateSuggestions()
	return m, cmd
}

func (m *Model) submit(value string) (tea.Model, tea.Cmd) {
	if strings.HasPrefix(strings.TrimSpace(value), "/") {
		m.textarea.Reset()
		m.suggestions = nil
		return m.ExecuteCommand(strings.TrimSpace(value))
	}

	id, err := m.coord.Submit(value)
	switch {
	case errors.Is(err, conversation.ErrEmptyInput):
		return m, nil
	case errors.Is(err, inference.ErrNoBackend):
		m.status = m.styles.Error.Render("No model loaded; message recorded but not sent")
	case err != nil:
		m.status = m.styles.Error.Render(err.Error())
	default:
		m.status = ""
		m.logger.Debug("submitted", zap.Uint64("request_id", id))
	}

	m.textarea.Reset()
	m.suggestions = nil
	m.refresh()
	return m, m.startSpinner()
}

func (m *Model) cancelPending() (tea.Model, tea.Cmd) {
	if !m.coord.CancelPending() {
		return m.showStatus("Nothing to cancel")
	}
	m.spinning = false
	return m.showStatus(m.styles.Muted.Render("Cancelled"))
}

func (m *Model) showStatus(text string) (tea.Model, tea.Cmd) {
	m.status = text
	return m, nil
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinning || m.coord.State() != inference.StateDispatching {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m *Model) updateSuggestions() {
	value := m.textarea.Value()
	if !strings.HasPrefix(value, "/") || strings.ContainsAny(value, " \n") {
		m.suggestions = nil
		m.selected = 0
		return
	}
	m.suggestions = FilterCommands(value)
	if m.selected >= len(m.suggestions) {
		m.selected = 0
	}
}

// inputLines estimates how many rows the composer needs for its content.
func (m *Model) inputLines() int {
	width := m.textarea.Width()
	if width <= 0 {
		return minInputLines
	}
	lines := 0
	for line := range strings.SplitSeq(m.textarea.Value(), "\n") {
		w := runewidth.StringWidth(line)
		lines += max(1, (w+width-1)/width)
	}
	return min(max(lines, minInputLines), maxInputLines)
}

func newViewport(width, height int) viewport.Model {
	return viewport.New(width, max(height-4, 1))
}
