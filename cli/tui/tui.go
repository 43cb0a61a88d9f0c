// Package tui is a terminal front-end for a [phonebook.Store].
package tui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oaiiae/phonebook/phonebook"
)

type Options struct {
	Notice time.Duration `doc:"how long notices stay visible" default:"5s"`
}

// Run shows the phonebook backed by service until the user quits or ctx ends.
func Run(ctx context.Context, options *Options, service phonebook.Service, logger *slog.Logger, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var program *tea.Program
	store := phonebook.NewStore(service, confirmer(&program),
		phonebook.WithLogger(logger),
		phonebook.WithNoticeDuration(options.Notice),
		phonebook.WithOnChange(func() { program.Send(changedMsg{}) }),
	)
	defer store.Close()

	program = tea.NewProgram(New(ctx, store), append(opts, tea.WithContext(ctx))...)
	_, err := program.Run()
	return err
}

// confirmer asks through the running program and waits for the answer.
func confirmer(program **tea.Program) phonebook.ConfirmFunc {
	return func(ctx context.Context, question string) (bool, error) {
		reply := make(chan bool, 1)
		(*program).Send(confirmMsg{question: question, reply: reply})
		select {
		case ok := <-reply:
			return ok, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

type (
	changedMsg struct{}
	confirmMsg struct {
		question string
		reply    chan<- bool
	}
	doneMsg struct{ err error }
)

const (
	focusFilter = iota
	focusName
	focusNumber
	focusList
	focusCount
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Border(lipgloss.RoundedBorder()).Padding(0, 1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Border(lipgloss.RoundedBorder()).Padding(0, 1)
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	helpStyle    = lipgloss.NewStyle().Faint(true)
)

// Model is the bubbletea model of the phonebook page.
type Model struct {
	ctx    context.Context
	store  *phonebook.Store
	inputs [focusList]textinput.Model
	focus  int
	cursor int
	prompt *confirmMsg
	busy   bool
}

func New(ctx context.Context, store *phonebook.Store) Model {
	m := Model{ctx: ctx, store: store, focus: focusName}
	for i, label := range [focusList]string{"filter shown with ", "name: ", "number: "} {
		in := textinput.New()
		in.Prompt = label
		in.CharLimit = 64
		m.inputs[i] = in
	}
	m.inputs[focusName].Focus()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.run(m.store.Load))
}

// run executes op off the event loop and reports back with a doneMsg.
func (m Model) run(op func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg { return doneMsg{err: op(ctx)} }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case confirmMsg:
		m.prompt = &msg
		return m, nil

	case changedMsg:
		return m.sync(), nil

	case doneMsg:
		m.busy = false
		return m.sync(), nil

	case tea.KeyMsg:
		if m.prompt != nil {
			return m.answer(msg.String())
		}
		return m.key(msg)
	}

	return m.forward(msg)
}

func (m Model) answer(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y", "enter":
		m.prompt.reply <- true
	case "n", "N", "esc":
		m.prompt.reply <- false
	case "ctrl+c":
		m.prompt.reply <- false
		return m, tea.Quit
	default:
		return m, nil
	}
	m.prompt = nil
	return m, nil
}

func (m Model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		return m.focusOn((m.focus + 1) % focusCount)
	case "shift+tab":
		return m.focusOn((m.focus + focusCount - 1) % focusCount)
	}

	if m.focus == focusList {
		shown := m.store.Filtered(m.inputs[focusFilter].Value())
		switch msg.String() {
		case "up", "k":
			m.cursor = max(m.cursor-1, 0)
		case "down", "j":
			m.cursor = min(m.cursor+1, max(len(shown)-1, 0))
		case "ctrl+d", "delete", "d":
			if m.busy || m.cursor >= len(shown) {
				return m, nil
			}
			contact := shown[m.cursor]
			m.busy = true
			return m, m.run(func(ctx context.Context) error {
				_, err := m.store.Remove(ctx, contact)
				return err
			})
		}
		return m, nil
	}

	if msg.String() == "enter" && m.focus != focusFilter {
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.run(func(ctx context.Context) error {
			_, err := m.store.Submit(ctx)
			return err
		})
	}

	return m.forward(msg)
}

// forward hands msg to the focused input and mirrors the form into the store.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus == focusList {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	switch m.focus {
	case focusName:
		m.store.SetName(m.inputs[focusName].Value())
	case focusNumber:
		m.store.SetNumber(m.inputs[focusNumber].Value())
	case focusFilter:
		m.cursor = 0
	}
	return m, cmd
}

func (m Model) focusOn(focus int) (tea.Model, tea.Cmd) {
	if m.focus < focusList {
		m.inputs[m.focus].Blur()
	}
	m.focus = focus
	if focus < focusList {
		return m, m.inputs[focus].Focus()
	}
	return m, nil
}

// sync pulls the pending entry back from the store, it is cleared on success.
func (m Model) sync() Model {
	pending := m.store.Pending()
	if m.inputs[focusName].Value() != pending.Name {
		m.inputs[focusName].SetValue(pending.Name)
	}
	if m.inputs[focusNumber].Value() != pending.Number {
		m.inputs[focusNumber].SetValue(pending.Number)
	}
	shown := m.store.Filtered(m.inputs[focusFilter].Value())
	m.cursor = min(m.cursor, max(len(shown)-1, 0))
	return m
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Phonebook") + "\n")
	for _, n := range m.store.Notices().Active() {
		style := successStyle
		if n.Polarity == phonebook.NoticeError {
			style = errorStyle
		}
		b.WriteString(style.Render(n.Message) + "\n")
	}
	b.WriteString(m.inputs[focusFilter].View() + "\n")

	b.WriteString(headerStyle.Render("add a new") + "\n")
	b.WriteString(m.inputs[focusName].View() + "\n")
	b.WriteString(m.inputs[focusNumber].View() + "\n")

	b.WriteString(headerStyle.Render("Numbers") + "\n")
	for i, c := range m.store.Filtered(m.inputs[focusFilter].Value()) {
		line := c.Name + " " + c.Number
		if m.focus == focusList && i == m.cursor {
			line = cursorStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	if m.prompt != nil {
		b.WriteString(promptStyle.Render(m.prompt.question+" (y/n)") + "\n")
	} else {
		b.WriteString(helpStyle.Render("tab: next field • enter: add • d: delete selected • esc: quit") + "\n")
	}
	return b.String()
}
