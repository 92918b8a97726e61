// Package repl implements the interactive expression shell.
package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/cel/lang"
	"github.com/ardnew/cel/log"
)

// editExprMsg is sent when an expression composed in the editor compiles.
type editExprMsg struct{ program *lang.Program }

// editCancelledMsg is sent when the user emptied the editor or declined to
// edit again after a compile error.
type editCancelledMsg struct{}

// editErrorMsg is sent when the editor could not be run.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

func helpMessage() string {
	return `
: commands (Esc switches between expression and command input)

  help     show this text
  vars     print every bound variable and its value
  edit     write the current expression in $EDITOR, then evaluate it
  clear    clear the screen
  quit     leave the shell (also Ctrl+D, or Ctrl+C on an empty line)

Expressions:
  size(name) > 3 ? name : "short"     one expression per line
  server.                             lists the members of a map
  name.startsWith(                    shows the matching signatures

Keys:
  Tab, Shift+Tab     step through completions; Space accepts, Esc reverts
  Up/Down            history of both modes, switching mode to match
  Shift+Up/Down      history of the current mode only
  Alt+Up/Down        command history; the end restores the previous mode
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true)

	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// formatCommand formats the echo line of an evaluated expression.
func formatCommand(input string) string {
	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// formatCtrlCommand formats the echo line of a control command.
func formatCtrlCommand(input string) string {
	return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
}

// model is the Bubble Tea model for the shell.
type model struct {
	ctxFunc          func() context.Context
	input            textinput.Model
	lang             *lang.Context
	logger           log.Logger
	history          *History
	historyIdx       int
	matches          fuzzy.Matches // current fuzzy match results
	candidates       []string      // backing candidate list
	wordStart        int           // byte offset of current word start
	wordEnd          int           // byte offset of current word end
	suggIdx          int           // selected candidate index
	tabActive        bool          // whether user is tab-cycling
	preTabText       string        // input text before tab-cycling began
	preTabCursor     int           // cursor position before tab-cycling began
	altNavActive     bool          // whether user is in Alt+Up/Down navigation
	altNavOrigMode   inputMode     // original mode before Alt navigation
	altNavOrigText   string        // original text before Alt navigation
	altNavOrigCursor int           // original cursor position before Alt navigation
	width            int           // terminal width for ellipsization
	quitting         bool
	mode             inputMode
	evalText         string
	evalCursor       int
	ctrlText         string
	ctrlCursor       int
}

// Run starts the shell, evaluating each line against c. History persists to
// a file in cacheDir.
func Run(
	ctx context.Context,
	c *lang.Context,
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if c == nil {
		return ErrNoContext
	}

	history := NewHistory(filepath.Join(cacheDir, baseHistory))
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("cache_dir", cacheDir),
		slog.Int("history_count", history.Len()),
		slog.Int("name_count", len(c.Names())),
	)

	p := tea.NewProgram(newModel(ctx, c, history, logger), tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	c *lang.Context,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		lang:       c,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editExprMsg:
		src := msg.program.String()
		_ = m.history.Add(src, modeEval)
		m.historyIdx = m.history.Len()

		return m, tea.Sequence(
			tea.Println(formatCommand(src)),
			m.evaluate(msg.program),
		)

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	funcCall := detectFunctionCall(input, m.input.Position())

	switch {
	case m.historyIdx < m.history.Len():
		pos := m.historyIdx + 1
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(pos)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		hint := "Type an expression or press Esc for commands"
		if m.mode == modeCtrl {
			hint = "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
		}

		b.WriteString(hintStyle.Render(hint))

	case funcCall.inCall && m.mode == modeEval && len(m.matches) == 0:
		signature, params := getSignature(m.lang, funcCall.name, funcCall.argIndex)
		b.WriteString(renderSignatureHint(signature, params, funcCall.argIndex))

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(
			m.matches, m.suggIdx, m.tabActive, m.width, m.isFunction,
		))
	}

	b.WriteString("\n")

	return b.String()
}

// isFunction reports whether name should be rendered as callable.
func (m model) isFunction(name string) bool {
	if _, ok := m.lang.Variable(name); ok {
		return false
	}

	return m.lang.HasFunction(name)
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	// The other mode keeps its pending text; edit seeds from it.
	if m.mode == modeCtrl {
		m.ctrlText, m.ctrlCursor = "", 0
	} else {
		m.evalText, m.evalCursor = "", 0
	}

	m.input.SetValue("")

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.DebugContext(m.ctxFunc(), "history write failed",
			slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		return m.executeCommand(input)
	}

	m.logger.TraceContext(m.ctxFunc(), "repl eval", slog.String("input", input))

	echoCmd := tea.Println(formatCommand(input))

	p, err := lang.CompileCached(m.ctxFunc(), input, lang.WithLogger(m.logger))
	if err != nil {
		return m, tea.Sequence(echoCmd, printError(err))
	}

	return m, tea.Sequence(echoCmd, m.evaluate(p))
}

// evaluate executes p and prints the result or the error.
func (m model) evaluate(p *lang.Program) tea.Cmd {
	v, err := p.Execute(m.lang)
	if err != nil {
		m.logger.TraceContext(m.ctxFunc(), "repl eval result",
			slog.String("result_type", "error"),
			slog.Any("error", err))

		return printError(err)
	}

	m.logger.TraceContext(m.ctxFunc(), "repl eval result",
		slog.String("result_type", v.Kind().String()))

	return tea.Println(resultStyle.Render(lang.Repr(v)))
}

func printError(err error) tea.Cmd {
	return tea.Println(errorStyle.Render(errorText(err)))
}

// errorText renders err for the shell. Evaluation errors carry the attributes
// of the failure, such as the unbound name and its position. Compile errors
// already end with a source snippet and are shown as is.
func errorText(err error) string {
	text := "error: " + err.Error()

	var ce *lang.CompileError
	if errors.As(err, &ce) {
		return text
	}

	var le *lang.Error
	if !errors.As(err, &le) || len(le.Attrs()) == 0 {
		return text
	}

	attrs := make([]string, 0, len(le.Attrs()))
	for _, a := range le.Attrs() {
		attrs = append(attrs, a.String())
	}

	return text + " (" + strings.Join(attrs, ", ") + ")"
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	echoCmd := tea.Println(formatCtrlCommand(input))

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl command",
		slog.String("command", parts[0]),
		slog.Any("args", parts[1:]),
	)

	switch parts[0] {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echoCmd, tea.Println(helpMessage()))

	case "v", "vars":
		return m, tea.Sequence(echoCmd, tea.Println(m.listVariables()))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echoCmd, m.edit())

	default:
		return m, tea.Println(
			errorStyle.Render("unknown command: " + parts[0] + " (try 'help')"),
		)
	}
}

// edit opens the editor seeded with the last expression typed in eval mode.
func (m model) edit() tea.Cmd {
	cmd := &editExprCommand{
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
		seed:    m.evalText,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editCancelledMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case cmd.program == nil:
			return editCancelledMsg{}
		}

		return editExprMsg{program: cmd.program}
	})
}

// listVariables renders each variable with a preview of its value.
func (m model) listVariables() string {
	names := m.lang.Variables()
	if len(names) == 0 {
		return hintStyle.Render("  (no variables)")
	}

	var b strings.Builder

	for _, name := range names {
		v, _ := m.lang.Variable(name)
		fmt.Fprintf(&b, "  %s %s %s\n",
			name,
			hintStyle.Render(v.Kind().String()),
			preview(v, 48))
	}

	return strings.TrimSuffix(b.String(), "\n")
}
