package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/noah-isme/gema-daily-challenge/internal/challenge"
)

// Loader fetches the lesson listing of one class.
type Loader func(ctx context.Context) ([]challenge.Lesson, error)

// ModelConfig wires the data source into the browser.
type ModelConfig struct {
	Load     Loader
	Title    string
	PageSize int
	Timeout  time.Duration
}

// Model is a terminal browser over a class challenge list. Search input is
// debounced: a typed text only filters once the input has been quiet for
// challenge.SearchDebounce.
type Model struct {
	cfg       ModelConfig
	view      *challenge.ListView
	search    textinput.Model
	searchTag int
	keys      keyMap
	theme     theme
	loading   bool
	err       error
	width     int
}

type lessonsMsg struct {
	lessons []challenge.Lesson
	err     error
}

type searchTickMsg struct {
	tag int
}

// NewModel returns a browser that loads on Init.
func NewModel(cfg ModelConfig) Model {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Title == "" {
		cfg.Title = "Daily challenges"
	}

	search := textinput.New()
	search.Placeholder = "search title or lesson"
	search.Prompt = "/ "
	search.CharLimit = 200

	return Model{
		cfg:     cfg,
		view:    challenge.NewListView(nil, cfg.PageSize),
		search:  search,
		keys:    defaultKeys(),
		theme:   defaultTheme(),
		loading: true,
		width:   100,
	}
}

func (m Model) Init() tea.Cmd {
	return m.fetch()
}

func (m Model) fetch() tea.Cmd {
	if m.cfg.Load == nil {
		return nil
	}
	load, timeout := m.cfg.Load, m.cfg.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		lessons, err := load(ctx)
		return lessonsMsg{lessons: lessons, err: err}
	}
}

func debounce(tag int) tea.Cmd {
	return tea.Tick(challenge.SearchDebounce, func(time.Time) tea.Msg {
		return searchTickMsg{tag: tag}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case lessonsMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.view.SetRows(challenge.Flatten(msg.lessons))
		}
		return m, nil

	case searchTickMsg:
		if msg.tag == m.searchTag {
			m.view.SetSearchText(strings.TrimSpace(m.search.Value()))
		}
		return m, nil

	case tea.KeyMsg:
		if m.search.Focused() {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Apply):
		// Apply now and invalidate any pending tick.
		m.searchTag++
		m.view.SetSearchText(strings.TrimSpace(m.search.Value()))
		m.search.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		m.search.Blur()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}
	m.searchTag++
	return m, tea.Batch(cmd, debounce(m.searchTag))
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Search):
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Toggle):
		index := int(msg.String()[0] - '1')
		if index >= 0 && index < len(challenge.AllTypes) {
			m.view.ToggleType(challenge.AllTypes[index])
		}
	case key.Matches(msg, m.keys.Prev):
		m.view.SetPage(m.view.CurrentPage() - 1)
	case key.Matches(msg, m.keys.Next):
		m.view.SetPage(m.view.CurrentPage() + 1)
	case key.Matches(msg, m.keys.Reset):
		m.searchTag++
		m.search.Reset()
		m.view.Reset()
	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		return m, m.fetch()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render(m.cfg.Title))
	b.WriteString("\n")
	b.WriteString(m.theme.Search.Render(m.search.View()))
	b.WriteString("\n")
	b.WriteString(m.renderChips())
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString("loading…\n")
	case m.err != nil:
		b.WriteString(m.theme.Error.Render("failed to load challenges: " + m.err.Error()))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderTable(m.view.Page()))
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderChips() string {
	selected := m.view.Filter().SelectedTypes
	chips := make([]string, 0, len(challenge.AllTypes))
	for i, t := range challenge.AllTypes {
		label := fmt.Sprintf("%d %s", i+1, t.Label())
		if _, ok := selected[t]; ok {
			chips = append(chips, m.theme.ChipActive.Render(label))
			continue
		}
		chips = append(chips, m.theme.Chip.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

func (m Model) renderTable(page challenge.PageResult) string {
	var b strings.Builder
	lessonWidth := clamp(m.width/4, 14, 32)
	titleWidth := clamp(m.width/3, 16, 48)

	b.WriteString(m.theme.Header.Render(fmt.Sprintf("%-*s %-*s %-22s %-10s %-12s %s",
		lessonWidth, "Lesson", titleWidth, "Challenge", "Type", "Score", "Deadline", "Submission")))
	b.WriteString("\n")

	if len(page.Rows) == 0 {
		b.WriteString(m.theme.Empty.Render("no challenges match the current filters"))
		b.WriteString("\n")
	}

	for _, row := range page.Rows {
		lesson := ""
		if row.IsFirstInGroup {
			lesson = row.LessonName
			if row.GroupSpan > 1 {
				lesson = fmt.Sprintf("%s (%d)", row.LessonName, row.GroupSpan)
			}
		}
		lessonCell := m.theme.Lesson.Render(fmt.Sprintf("%-*s", lessonWidth, truncate(lesson, lessonWidth)))

		if row.IsEmptyGroup {
			b.WriteString(lessonCell + " " + m.theme.Empty.Render("no challenges yet"))
			b.WriteString("\n")
			continue
		}

		title, kind, score, deadline, submission := "", "", "-", "-", "not started"
		if row.Title != nil {
			title = *row.Title
		}
		if row.Type != nil {
			kind = row.Type.Label()
		}
		if row.TotalScore != nil {
			score = fmt.Sprintf("%.1f/10", *row.TotalScore)
		}
		if row.EndDate != nil {
			deadline = row.EndDate.Local().Format("02 Jan 15:04")
		}
		submissionStyle := m.theme.Cell
		if row.SubmissionStatus != nil {
			submission = strings.ToLower(*row.SubmissionStatus)
			submissionStyle = m.theme.Submitted
		}

		b.WriteString(fmt.Sprintf("%s %-*s %-22s %-10s %-12s %s\n",
			lessonCell, titleWidth, truncate(title, titleWidth), kind, score, deadline, submissionStyle.Render(submission)))
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Status.Render(fmt.Sprintf("page %d/%d · %d challenges", page.Page, page.TotalPages, page.Total)))
	return b.String()
}

func (m Model) renderHelp() string {
	parts := make([]string, 0, len(m.keys.help()))
	for _, binding := range m.keys.help() {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return m.theme.Help.Render(strings.Join(parts, " • "))
}

func truncate(value string, width int) string {
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
