package challenge

import (
	"fmt"
	"strings"
	"time"
)

// Type enumerates the skill a daily challenge trains.
type Type string

const (
	TypeGrammarVocabulary Type = "GV"
	TypeReading           Type = "RE"
	TypeWriting           Type = "WR"
	TypeListening         Type = "LI"
	TypeSpeaking          Type = "SP"
)

// AllTypes lists challenge types in display order.
var AllTypes = []Type{TypeGrammarVocabulary, TypeReading, TypeWriting, TypeListening, TypeSpeaking}

// Valid reports whether t is a known challenge type.
func (t Type) Valid() bool {
	switch t {
	case TypeGrammarVocabulary, TypeReading, TypeWriting, TypeListening, TypeSpeaking:
		return true
	}
	return false
}

// Label returns the human readable name of the type.
func (t Type) Label() string {
	switch t {
	case TypeGrammarVocabulary:
		return "Grammar & Vocabulary"
	case TypeReading:
		return "Reading"
	case TypeWriting:
		return "Writing"
	case TypeListening:
		return "Listening"
	case TypeSpeaking:
		return "Speaking"
	default:
		return string(t)
	}
}

// ParseType converts a case-insensitive code into a Type.
func ParseType(value string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(value)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown challenge type %q", value)
	}
	return t, nil
}

// ParseTypes parses a list of codes, skipping blanks.
func ParseTypes(values []string) ([]Type, error) {
	types := make([]Type, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		t, err := ParseType(value)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// Row is one visible line of the lesson-grouped challenge table.
type Row struct {
	ID               string     `json:"id"`
	ChallengeID      *int64     `json:"challenge_id,omitempty"`
	LessonID         *int64     `json:"lesson_id,omitempty"`
	LessonName       string     `json:"lesson_name"`
	Title            *string    `json:"title"`
	Type             *Type      `json:"type"`
	Status           *string    `json:"status"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	TotalScore       *float64   `json:"total_score"`
	SubmissionStatus *string    `json:"submission_status"`
	IsFirstInGroup   bool       `json:"is_first_in_group"`
	GroupSpan        int        `json:"group_span"`
	IsEmptyGroup     bool       `json:"is_empty_group"`
}

// groupKey identifies the lesson run a row belongs to. Rows without a lesson
// fall back to their own id so two unrelated rows never merge.
func (r Row) groupKey() string {
	if r.LessonID != nil {
		return fmt.Sprintf("lesson:%d", *r.LessonID)
	}
	return "row:" + r.ID
}

// Lesson is the backend payload for one lesson of a class listing.
type Lesson struct {
	LessonID        int64             `json:"lessonId"`
	LessonName      string            `json:"lessonName"`
	DailyChallenges []LessonChallenge `json:"dailyChallenges"`
}

// LessonChallenge is a challenge as listed under its lesson.
type LessonChallenge struct {
	ID               int64      `json:"id"`
	Title            string     `json:"challengeName"`
	Type             Type       `json:"challengeType"`
	Status           string     `json:"status"`
	StartDate        *time.Time `json:"startDate"`
	EndDate          *time.Time `json:"endDate"`
	TotalScore       *float64   `json:"totalScore"`
	SubmissionStatus string     `json:"submissionStatus"`
}

// Flatten turns the lesson listing into table rows. A lesson without
// challenges is kept as a single placeholder row.
func Flatten(lessons []Lesson) []Row {
	rows := make([]Row, 0, len(lessons))
	for _, lesson := range lessons {
		lessonID := lesson.LessonID
		if len(lesson.DailyChallenges) == 0 {
			rows = append(rows, Row{
				ID:           fmt.Sprintf("empty-%d", lessonID),
				LessonID:     &lessonID,
				LessonName:   lesson.LessonName,
				IsEmptyGroup: true,
			})
			continue
		}

		for _, item := range lesson.DailyChallenges {
			challengeID := item.ID
			title := item.Title
			kind := item.Type
			status := item.Status
			row := Row{
				ID:          fmt.Sprintf("%d-%d", lessonID, challengeID),
				ChallengeID: &challengeID,
				LessonID:    &lessonID,
				LessonName:  lesson.LessonName,
				Title:       &title,
				Type:        &kind,
				Status:      &status,
				StartDate:   item.StartDate,
				EndDate:     item.EndDate,
				TotalScore:  clampScore(item.TotalScore),
			}
			if item.SubmissionStatus != "" {
				submission := item.SubmissionStatus
				row.SubmissionStatus = &submission
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func clampScore(score *float64) *float64 {
	if score == nil {
		return nil
	}
	value := *score
	if value < 0 {
		value = 0
	}
	if value > 10 {
		value = 10
	}
	return &value
}
