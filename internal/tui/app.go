// internal/tui/app.go
//
// Inspector for an interpreted segment. It follows The Elm Architecture used
// by bubbletea: the App holds the outcome of a script run, Update reacts to
// keys and window sizes, and View renders commands, voices and leaves side by
// side with the rendered LilyPond source on demand.

package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/overture/internal/command"
	"github.com/kingrea/overture/internal/score"
	"github.com/kingrea/overture/internal/script"
)

type pane int

const (
	paneCommands pane = iota
	paneVoices
	paneSource
)

// Logger receives inspector events.
type Logger interface {
	Printf(format string, args ...any)
}

// tailer is implemented by loggers that can show their recent lines.
type tailer interface {
	Tail(maxLines int) []string
	Path() string
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithSource attaches the rendered LilyPond text shown by the source pane.
func WithSource(source string) AppOption {
	return func(a *App) {
		a.source = source
	}
}

// WithLogger records focus changes and selections.
func WithLogger(logger Logger) AppOption {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// App is the inspector model.
type App struct {
	outcome script.Outcome
	source  string
	logger  Logger

	focus    pane
	commands list.Model
	voices   list.Model
	voice    string

	statusMsg string
	width     int
	height    int
}

type outcomeItem struct {
	outcome command.Outcome
}

func (i outcomeItem) Title() string {
	return fmt.Sprintf("[%s] %s", i.outcome.Result.Status, i.outcome.Entry.Command.Info().Label())
}

func (i outcomeItem) Description() string {
	desc := fmt.Sprintf("%s %s · %d leaves", i.outcome.Entry.Voice, i.outcome.Entry.Measures, i.outcome.Result.Targets)
	if msg := strings.TrimSpace(i.outcome.Result.Message); msg != "" {
		desc += " · " + msg
	}
	return desc
}

func (i outcomeItem) FilterValue() string { return i.outcome.Entry.Command.Info().Name }

type voiceItem struct {
	name   string
	leaves int
	dur    string
}

func (i voiceItem) Title() string       { return i.name }
func (i voiceItem) Description() string { return fmt.Sprintf("%d leaves · %s", i.leaves, i.dur) }
func (i voiceItem) FilterValue() string { return i.name }

// NewApp builds an inspector over a script run.
func NewApp(outcome script.Outcome, opts ...AppOption) (*App, error) {
	if outcome.Score == nil {
		return nil, fmt.Errorf("tui: outcome has no score")
	}
	commands := list.New(outcomeItems(outcome.Report), list.NewDefaultDelegate(), 0, 0)
	commands.Title = "Commands"
	commands.SetShowStatusBar(false)
	commands.SetFilteringEnabled(false)

	voices := list.New(voiceItems(outcome.Score), list.NewDefaultDelegate(), 0, 0)
	voices.Title = "Voices"
	voices.SetShowStatusBar(false)
	voices.SetFilteringEnabled(false)

	app := &App{
		outcome:  outcome,
		commands: commands,
		voices:   voices,
		focus:    paneCommands,
	}
	if names := outcome.Score.VoiceNames(); len(names) > 0 {
		app.voice = names[0]
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.statusMsg = app.summary()
	return app, nil
}

// Run starts the bubbletea program and blocks until the user quits.
func Run(app *App) error {
	_, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
	return err
}

func outcomeItems(report command.Report) []list.Item {
	items := make([]list.Item, len(report.Outcomes))
	for i, outcome := range report.Outcomes {
		items[i] = outcomeItem{outcome: outcome}
	}
	return items
}

func voiceItems(s *score.Score) []list.Item {
	names := s.VoiceNames()
	items := make([]list.Item, 0, len(names))
	for _, name := range names {
		v, _ := s.Voice(name)
		items = append(items, voiceItem{name: name, leaves: len(v.Leaves), dur: v.Duration().String()})
	}
	return items
}

func (a *App) summary() string {
	r := a.outcome.Report
	return fmt.Sprintf("%s · %d completed · %d no-op · %d deactivated · %d filled",
		a.outcome.Script.ID,
		r.Count(command.StatusCompleted),
		r.Count(command.StatusNoOp),
		r.Count(command.StatusDeactivated),
		a.outcome.Filled,
	)
}

func (a *App) logf(format string, args ...any) {
	if a.logger == nil {
		return
	}
	a.logger.Printf(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		half := max(0, msg.Width/2-4)
		a.commands.SetSize(half, max(0, msg.Height-8))
		a.voices.SetSize(half, max(0, msg.Height/2-4))
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit
		case "tab":
			a.setFocus((a.focus + 1) % 3)
			return a, nil
		case "s":
			if a.focus == paneSource {
				a.setFocus(paneCommands)
			} else {
				a.setFocus(paneSource)
			}
			return a, nil
		case "esc":
			a.setFocus(paneCommands)
			return a, nil
		case "enter":
			if a.focus == paneVoices {
				if item, ok := a.voices.SelectedItem().(voiceItem); ok {
					a.voice = item.name
					a.statusMsg = fmt.Sprintf("Showing %s", item.name)
					a.logf("tui: inspect voice %s", item.name)
				}
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	switch a.focus {
	case paneCommands:
		a.commands, cmd = a.commands.Update(msg)
	case paneVoices:
		a.voices, cmd = a.voices.Update(msg)
	}
	return a, cmd
}

func (a *App) setFocus(p pane) {
	a.focus = p
	if p == paneSource && strings.TrimSpace(a.source) == "" {
		a.statusMsg = "No rendered source attached"
		return
	}
	a.statusMsg = a.summary()
}

// View renders the current UI.
func (a *App) View() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("♩ OVERTURE · " + a.outcome.Script.ID)

	var body string
	if a.focus == paneSource {
		body = a.panel(a.source, a.width-2, true)
	} else {
		width := max(40, a.width/2)
		left := a.panel(a.commands.View(), width, a.focus == paneCommands)
		right := lipgloss.JoinVertical(lipgloss.Left,
			a.panel(a.voices.View(), width, a.focus == paneVoices),
			a.panel(a.renderLeaves(), width, false),
		)
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg + "\n" + "tab: focus · enter: inspect voice · s: source · q: quit")
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) renderLogPanel() string {
	t, ok := a.logger.(tailer)
	if !ok {
		return ""
	}
	lines := t.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(t.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s", fileName))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) panel(content string, width int, focused bool) string {
	border := lipgloss.Color("#444444")
	if focused {
		border = lipgloss.Color("#5B8DEF")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(max(20, width)).
		Render(content)
}

func (a *App) renderLeaves() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render("Leaves · " + a.voice)
	v, ok := a.outcome.Score.Voice(a.voice)
	if !ok || len(v.Leaves) == 0 {
		note := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("No leaves.")
		return lipgloss.JoinVertical(lipgloss.Left, title, note)
	}
	lines := make([]string, 0, len(v.Leaves))
	for _, leaf := range v.Leaves {
		lines = append(lines, describeLeaf(leaf))
	}
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

func describeLeaf(leaf *score.Leaf) string {
	line := leaf.String()
	var marks []string
	if leaf.Tie {
		marks = append(marks, "~")
	}
	if leaf.RepeatTie {
		marks = append(marks, "repeat-tie")
	}
	if n := len(leaf.Overrides); n > 0 {
		marks = append(marks, fmt.Sprintf("%d overrides", n))
	}
	if len(leaf.Tags) > 0 {
		marks = append(marks, "tags "+strings.Join(leaf.Tags, ","))
	}
	if len(marks) > 0 {
		line += " · " + strings.Join(marks, " · ")
	}
	return line
}
