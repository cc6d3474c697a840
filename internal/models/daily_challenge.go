package models

import (
	"encoding/json"
	"time"
)

// ChallengeStatus is the publication state of a daily challenge.
type ChallengeStatus string

const (
	ChallengeStatusDraft    ChallengeStatus = "DRAFT"
	ChallengeStatusOpen     ChallengeStatus = "OPEN"
	ChallengeStatusClosed   ChallengeStatus = "CLOSED"
	ChallengeStatusArchived ChallengeStatus = "ARCHIVED"
)

// DailyChallenge mirrors the backend representation of a challenge.
type DailyChallenge struct {
	ID            int64           `json:"id"`
	LessonID      *int64          `json:"lessonId,omitempty"`
	ClassID       *int64          `json:"classId,omitempty"`
	ChallengeName string          `json:"challengeName"`
	Description   string          `json:"description,omitempty"`
	ChallengeType string          `json:"challengeType"`
	Status        ChallengeStatus `json:"status"`
	StartDate     *time.Time      `json:"startDate,omitempty"`
	EndDate       *time.Time      `json:"endDate,omitempty"`
	DurationMin   int             `json:"durationMinutes,omitempty"`
	TotalScore    *float64        `json:"totalScore,omitempty"`
	CreatedAt     *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time      `json:"updatedAt,omitempty"`
}

// ChallengeSubmission is one student's attempt at a challenge.
type ChallengeSubmission struct {
	ID          int64      `json:"id"`
	StudentID   int64      `json:"studentId"`
	StudentName string     `json:"studentName"`
	Status      string     `json:"status"`
	TotalScore  *float64   `json:"totalScore,omitempty"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

// ChallengePerformance aggregates results for a challenge.
type ChallengePerformance struct {
	ChallengeID     int64              `json:"challengeId"`
	TotalStudents   int                `json:"totalStudents"`
	Submitted       int                `json:"submitted"`
	AverageScore    float64            `json:"averageScore"`
	HighestScore    float64            `json:"highestScore"`
	LowestScore     float64            `json:"lowestScore"`
	ScoreBreakdown  map[string]float64 `json:"scoreBreakdown,omitempty"`
	QuestionSummary []json.RawMessage  `json:"questionSummary,omitempty"`
}

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionMultipleSelect QuestionType = "MULTIPLE_SELECT"
	QuestionTrueFalse      QuestionType = "TRUE_OR_FALSE"
	QuestionFillInBlank    QuestionType = "FILL_IN_THE_BLANK"
	QuestionDropdown       QuestionType = "DROPDOWN"
	QuestionDragAndDrop    QuestionType = "DRAG_AND_DROP"
	QuestionRearrange      QuestionType = "REARRANGE"
	QuestionShortAnswer    QuestionType = "SHORT_ANSWER"
	QuestionWriting        QuestionType = "WRITING"
	QuestionSpeaking       QuestionType = "SPEAKING"
)

// Section groups questions under a passage, prompt or clip.
type Section struct {
	ID            int64  `json:"id,omitempty"`
	SectionTitle  string `json:"sectionTitle"`
	SectionsOrder int    `json:"sectionsOrder"`
	ResourceType  string `json:"resourceType,omitempty"`
	SectionsURL   string `json:"sectionsUrl,omitempty"`
	Transcript    string `json:"transcript,omitempty"`
}

// QuestionContentItem is one option or position record of a question.
type QuestionContentItem struct {
	ID        string `json:"id"`
	Value     string `json:"value"`
	Correct   *bool  `json:"correct,omitempty"`
	Position  *int   `json:"positionId,omitempty"`
	PositionV string `json:"positionValue,omitempty"`
}

// QuestionContent wraps the type-specific records.
type QuestionContent struct {
	Data []QuestionContentItem `json:"data"`
}

// Question is a single item inside a section.
type Question struct {
	ID            int64           `json:"id,omitempty"`
	QuestionText  string          `json:"questionText"`
	QuestionType  QuestionType    `json:"questionType"`
	Score         float64         `json:"score"`
	OrderNumber   int             `json:"orderNumber"`
	Content       QuestionContent `json:"content"`
	ToBeDeleted   bool            `json:"toBeDeleted,omitempty"`
	Instruction   string          `json:"instruction,omitempty"`
	ReferenceText string          `json:"referenceText,omitempty"`
}

// SectionWithQuestions is the listing/save shape of a section.
type SectionWithQuestions struct {
	Section   Section    `json:"section"`
	Questions []Question `json:"questions"`
}

// SubmissionResult summarises a graded submission.
type SubmissionResult struct {
	SubmissionID int64                `json:"submissionId"`
	ChallengeID  int64                `json:"challengeId"`
	StudentName  string               `json:"studentName"`
	TotalScore   *float64             `json:"totalScore,omitempty"`
	Status       string               `json:"status"`
	Questions    []SubmissionQuestion `json:"submissionQuestions,omitempty"`
}

// SubmissionQuestion is a student's answer to one question.
type SubmissionQuestion struct {
	ID            int64        `json:"id"`
	SubmissionID  int64        `json:"submissionId"`
	QuestionID    int64        `json:"questionId"`
	QuestionText  string       `json:"questionText"`
	QuestionType  QuestionType `json:"questionType"`
	AnswerText    string       `json:"answerText,omitempty"`
	AudioURL      string       `json:"audioUrl,omitempty"`
	ReferenceText string       `json:"referenceText,omitempty"`
	MaxWeight     float64      `json:"maxWeight"`
	IsCorrect     *bool        `json:"isCorrect,omitempty"`
}

// HighlightComment is the persisted form of a teacher highlight.
type HighlightComment struct {
	ID         string    `json:"id"`
	StartIndex int       `json:"startIndex"`
	EndIndex   int       `json:"endIndex"`
	Comment    string    `json:"comment"`
	Timestamp  time.Time `json:"timestamp"`
}

// Grading is the teacher's evaluation of one submission question.
type Grading struct {
	SubmissionQuestionID int64              `json:"submissionQuestionId"`
	ReceivedWeight       *float64           `json:"receivedWeight"`
	Feedback             string             `json:"feedback"`
	HighlightComments    []HighlightComment `json:"highlightComments"`
}

// WritingFeedback is an AI proposal for a writing answer.
type WritingFeedback struct {
	Feedback          string             `json:"feedback"`
	SuggestedScore    *float64           `json:"suggestedScore,omitempty"`
	HighlightComments []HighlightComment `json:"highlightComments,omitempty"`
}

// PronunciationResult is the assessment of a spoken answer.
type PronunciationResult struct {
	AccuracyScore     float64         `json:"accuracyScore"`
	FluencyScore      float64         `json:"fluencyScore"`
	CompletenessScore float64         `json:"completenessScore"`
	PronScore         float64         `json:"pronScore"`
	RecognizedText    string          `json:"recognizedText,omitempty"`
	Words             json.RawMessage `json:"words,omitempty"`
}

// SectionOrder moves one section to a new position.
type SectionOrder struct {
	SectionID     int64 `json:"sectionId"`
	SectionsOrder int   `json:"sectionsOrder"`
}

// BulkSectionRequest deletes and reorders sections of a challenge at once.
type BulkSectionRequest struct {
	DeleteSectionIDs []int64        `json:"deleteSectionIds,omitempty"`
	Orders           []SectionOrder `json:"sectionOrders,omitempty"`
}

// WritingFeedbackRequest asks for AI feedback on a writing answer.
type WritingFeedbackRequest struct {
	SubmissionQuestionID int64   `json:"submissionQuestionId"`
	QuestionText         string  `json:"questionText"`
	AnswerText           string  `json:"answerText"`
	MaxWeight            float64 `json:"maxWeight"`
}

// PronunciationRequest asks for an assessment of a recorded answer.
type PronunciationRequest struct {
	AudioURL      string `json:"audioUrl"`
	ReferenceText string `json:"referenceText,omitempty"`
	Age           *int   `json:"age,omitempty"`
}
