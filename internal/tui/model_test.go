package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-daily-challenge/internal/challenge"
)

func sampleLessons() []challenge.Lesson {
	return []challenge.Lesson{
		{LessonID: 1, LessonName: "Past tense", DailyChallenges: []challenge.LessonChallenge{
			{ID: 10, Title: "Irregular verbs", Type: challenge.TypeGrammarVocabulary, Status: "PUBLISHED"},
			{ID: 11, Title: "Weekend story", Type: challenge.TypeWriting, Status: "PUBLISHED"},
		}},
		{LessonID: 2, LessonName: "Travel", DailyChallenges: []challenge.LessonChallenge{
			{ID: 12, Title: "Airport dialogue", Type: challenge.TypeListening, Status: "PUBLISHED"},
			{ID: 13, Title: "Hotel booking", Type: challenge.TypeReading, Status: "PUBLISHED"},
		}},
		{LessonID: 3, LessonName: "Food"},
	}
}

func loaded(t *testing.T, pageSize int) Model {
	t.Helper()
	m := NewModel(ModelConfig{PageSize: pageSize, Load: func(context.Context) ([]challenge.Lesson, error) {
		return sampleLessons(), nil
	}})

	msg := m.Init()()
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runes(value string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(value)}
}

func TestModelLoadsAndGroupsLessons(t *testing.T) {
	m := loaded(t, 10)
	require.False(t, m.loading)

	page := m.view.Page()
	require.Equal(t, 5, page.Total)
	require.True(t, page.Rows[0].IsFirstInGroup)
	require.Equal(t, 2, page.Rows[0].GroupSpan)
	require.False(t, page.Rows[1].IsFirstInGroup)

	view := m.View()
	require.Contains(t, view, "Past tense (2)")
	require.Contains(t, view, "no challenges yet")
	require.Contains(t, view, "page 1/1")
}

func TestModelLoadErrorIsShown(t *testing.T) {
	m := NewModel(ModelConfig{Load: func(context.Context) ([]challenge.Lesson, error) {
		return nil, errors.New("backend down")
	}})
	next, _ := m.Update(m.Init()())
	require.Contains(t, next.(Model).View(), "backend down")
}

func TestModelTogglesTypesWithNumberKeys(t *testing.T) {
	m := loaded(t, 10)

	m, _ = press(t, m, runes("3"))
	require.Equal(t, []challenge.Type{challenge.TypeWriting}, m.view.Filter().Types())
	// Writing row plus the empty lesson placeholder.
	require.Equal(t, 2, m.view.Page().Total)

	m, _ = press(t, m, runes("3"))
	require.Empty(t, m.view.Filter().Types())
	require.Equal(t, 5, m.view.Page().Total)
}

func TestModelPagesWithArrowKeys(t *testing.T) {
	m := loaded(t, 2)
	require.Equal(t, 1, m.view.CurrentPage())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	require.Equal(t, 2, m.view.CurrentPage())
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	require.Equal(t, 3, m.view.CurrentPage())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	require.Equal(t, 2, m.view.CurrentPage())
}

func TestModelDebouncesSearch(t *testing.T) {
	m := loaded(t, 10)

	m, _ = press(t, m, runes("/"))
	require.True(t, m.search.Focused())

	m, cmd := press(t, m, runes("h"))
	require.NotNil(t, cmd)
	staleTag := m.searchTag
	m, _ = press(t, m, runes("o"))
	m, _ = press(t, m, runes("t"))
	require.Equal(t, "hot", m.search.Value())
	require.Empty(t, m.view.Filter().SearchText)

	next, _ := m.Update(searchTickMsg{tag: staleTag})
	m = next.(Model)
	require.Empty(t, m.view.Filter().SearchText)

	next, _ = m.Update(searchTickMsg{tag: m.searchTag})
	m = next.(Model)
	require.Equal(t, "hot", m.view.Filter().SearchText)
	require.Equal(t, 1, m.view.Page().Total)
}

func TestModelEnterAppliesSearchImmediately(t *testing.T) {
	m := loaded(t, 10)

	m, _ = press(t, m, runes("/"))
	m, _ = press(t, m, runes("travel"))
	pending := m.searchTag
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, m.search.Focused())
	require.Equal(t, "travel", m.view.Filter().SearchText)
	require.Equal(t, 2, m.view.Page().Total)

	next, _ := m.Update(searchTickMsg{tag: pending})
	require.Equal(t, "travel", next.(Model).view.Filter().SearchText)
}

func TestModelResetClearsFilters(t *testing.T) {
	m := loaded(t, 2)

	m, _ = press(t, m, runes("/"))
	m, _ = press(t, m, runes("verbs"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = press(t, m, runes("1"))
	require.NotEmpty(t, m.view.Filter().Types())

	m, _ = press(t, m, runes("r"))
	require.Empty(t, m.search.Value())
	require.Empty(t, m.view.Filter().SearchText)
	require.Empty(t, m.view.Filter().Types())
	require.Equal(t, 1, m.view.CurrentPage())
	require.Equal(t, 5, m.view.Page().Total)
}
