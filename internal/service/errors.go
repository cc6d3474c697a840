package service

import (
	"errors"
	"fmt"
)

var (
	// ErrChallengeNotFound indicates the backend has no such challenge.
	ErrChallengeNotFound = errors.New("daily challenge not found")
	// ErrInvalidSchedule indicates an end date that is not after the start date.
	ErrInvalidSchedule = errors.New("end date must be after start date")
	// ErrInvalidSectionPayload indicates a section payload failed schema or content checks.
	ErrInvalidSectionPayload = errors.New("invalid section payload")
	// ErrInvalidBulkRequest indicates duplicate or missing section orders.
	ErrInvalidBulkRequest = errors.New("invalid bulk section request")
	// ErrSubmissionQuestionNotFound indicates the backend has no such submission question.
	ErrSubmissionQuestionNotFound = errors.New("submission question not found")
	// ErrScoreExceedsMax indicates a grading score surpasses the question's max weight.
	ErrScoreExceedsMax = errors.New("score exceeds max weight")
	// ErrNotEditable indicates feedback text was changed outside an editing mode.
	ErrNotEditable = errors.New("feedback is not in an editing mode")
	// ErrServerDrivenEvent indicates a client tried to fire an event only the gateway may fire.
	ErrServerDrivenEvent = errors.New("event is fired by the gateway")
	// ErrStaleResponse indicates a slow response lost the race against newer input.
	ErrStaleResponse = errors.New("response superseded by newer input")
	// ErrAIUnavailable indicates the feedback generator failed.
	ErrAIUnavailable = errors.New("ai feedback unavailable")
	// ErrUnsupportedQuestion indicates the operation does not apply to the question type.
	ErrUnsupportedQuestion = errors.New("operation not supported for this question type")
	// ErrEmptyAnswer indicates AI feedback was requested for a blank answer.
	ErrEmptyAnswer = errors.New("answer is empty")
	// ErrAudioRequired indicates a pronunciation request without audio.
	ErrAudioRequired = errors.New("audio url or recording is required")
	// ErrAudioTooLarge indicates an uploaded recording exceeds the size limit.
	ErrAudioTooLarge = errors.New("recording exceeds size limit")
	// ErrAudioTypeNotAllowed indicates an uploaded file is not audio.
	ErrAudioTypeNotAllowed = errors.New("recording type not allowed")
	// ErrAudioStorageDisabled indicates uploads arrived while no audio store is configured.
	ErrAudioStorageDisabled = errors.New("recording uploads are not configured")
)

// FieldError is a validation failure tied to one input field.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Problem is one rejected part of a payload.
type Problem struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// PayloadError lists every problem found in a structured payload.
type PayloadError struct {
	Err      error
	Problems []Problem
}

func (e *PayloadError) Error() string {
	if len(e.Problems) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s %s", e.Err.Error(), e.Problems[0].Location, e.Problems[0].Message)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}
