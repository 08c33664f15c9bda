package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/mlbridge/exports"
	"github.com/wippyai/mlbridge/natives"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	outputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DDDDDD")).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			PaddingLeft(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	cfg      config
	log      *zap.Logger
	sess     *session
	out      *bytes.Buffer
	result   string
	printed  string
	funcs    []exports.Func
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

func newInteractiveModel(cfg config, log *zap.Logger) *interactiveModel {
	return &interactiveModel{
		cfg:   cfg,
		log:   log,
		out:   &bytes.Buffer{},
		state: stateSelectFunc,
	}
}

type loadedMsg struct {
	err  error
	sess *session
}

type callResultMsg struct {
	err     error
	result  string
	printed string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.startSession
}

func (m *interactiveModel) startSession() tea.Msg {
	sess, err := newSession(context.Background(), m.cfg, natives.New(m.out), m.log)
	return loadedMsg{sess: sess, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, m.quit()

		case "q":
			if m.state != stateInputArgs {
				return m, m.quit()
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				if len(m.funcs) == 0 {
					return m, nil
				}
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateInputArgs
				return m, nil

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.clearResult()
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.clearResult()
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.sess = msg.sess
		m.funcs = append([]exports.Func{{Name: exports.PrintModule}}, msg.sess.mod.Funcs()...)

	case callResultMsg:
		m.result = msg.result
		m.printed = msg.printed
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) quit() tea.Cmd {
	if m.sess != nil {
		m.sess.close(context.Background())
	}
	return tea.Quit
}

func (m *interactiveModel) clearResult() {
	m.state = stateSelectFunc
	m.result = ""
	m.printed = ""
	m.err = nil
}

func (m *interactiveModel) prepareInputs() {
	f := m.funcs[m.selected]
	m.inputs = make([]textinput.Model, len(f.Args))
	for i, t := range f.Args {
		ti := textinput.New()
		ti.Placeholder = t.Name()
		ti.Prompt = fmt.Sprintf("arg%d: ", i)
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callFunction() tea.Msg {
	ctx := context.Background()
	if m.sess == nil {
		return callResultMsg{err: fmt.Errorf("session not started")}
	}
	m.out.Reset()

	f := m.funcs[m.selected]
	if f.Name == exports.PrintModule {
		err := m.sess.printModule(ctx)
		return callResultMsg{err: err, printed: m.out.String()}
	}

	srcs := make([]string, len(m.inputs))
	for i, input := range m.inputs {
		srcs[i] = input.Value()
	}
	result, typ, err := m.sess.call(ctx, f.Name, strings.Join(srcs, "; "))
	if err != nil {
		return callResultMsg{err: err, printed: m.out.String()}
	}
	return callResultMsg{
		result:  fmt.Sprintf("- : %s = %s", typeStyle.Render(typ.Name()), result),
		printed: m.out.String(),
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.sess == nil {
		return "Starting session..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("mlbridge"))
	b.WriteString(" ")
	b.WriteString(m.sess.mod.Name())
	b.WriteString(" (")
	b.WriteString(m.cfg.mode)
	b.WriteString(")\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString("Select a function to call:\n\n")
		for i, f := range m.funcs {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + f.Name))
				b.WriteString(" " + formatSig(f))
			} else {
				b.WriteString("  " + funcStyle.Render(f.Name) + " " + formatSig(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(f.Name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(f.Args[i].Name()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(f.Name)))
		if m.printed != "" {
			b.WriteString(outputStyle.Render(strings.TrimRight(m.printed, "\n")))
			b.WriteString("\n\n")
		}
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else if m.result != "" {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func formatSig(f exports.Func) string {
	if f.Name == exports.PrintModule {
		return typeStyle.Render(": unit -> unit")
	}
	return typeStyle.Render(": " + f.Decl().Signature())
}

func runInteractive(cfg config, log *zap.Logger) error {
	p := tea.NewProgram(newInteractiveModel(cfg, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
