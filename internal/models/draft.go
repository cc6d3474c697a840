package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/gema-daily-challenge/internal/annotation"
)

// Draft is the unsaved grading work of a teacher on one submission question.
type Draft struct {
	SubmissionQuestionID int64              `json:"submission_question_id"`
	Mode                 string             `json:"mode"`
	Feedback             string             `json:"feedback"`
	SuggestedScore       *float64           `json:"suggested_score,omitempty"`
	AIGenerated          bool               `json:"ai_generated"`
	Highlights           []annotation.Range `json:"highlights"`
	Revision             int64              `json:"revision"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// DraftRecord is the SQL row backing a Draft.
type DraftRecord struct {
	SubmissionQuestionID int64          `gorm:"primaryKey;autoIncrement:false"`
	Mode                 string         `gorm:"size:32;not null"`
	Feedback             string         `gorm:"type:text"`
	SuggestedScore       *float64
	AIGenerated          bool           `gorm:"not null;default:false"`
	Highlights           datatypes.JSON `gorm:"type:json"`
	Revision             int64          `gorm:"not null;default:0"`
	UpdatedAt            time.Time
}

// TableName keeps the table name stable across renames.
func (DraftRecord) TableName() string {
	return "grading_drafts"
}

// NewDraftRecord converts a draft into its SQL row.
func NewDraftRecord(draft Draft) (DraftRecord, error) {
	highlights := draft.Highlights
	if highlights == nil {
		highlights = []annotation.Range{}
	}
	data, err := json.Marshal(highlights)
	if err != nil {
		return DraftRecord{}, err
	}
	return DraftRecord{
		SubmissionQuestionID: draft.SubmissionQuestionID,
		Mode:                 draft.Mode,
		Feedback:             draft.Feedback,
		SuggestedScore:       draft.SuggestedScore,
		AIGenerated:          draft.AIGenerated,
		Highlights:           datatypes.JSON(data),
		Revision:             draft.Revision,
		UpdatedAt:            draft.UpdatedAt,
	}, nil
}

// Draft converts the row back into a Draft.
func (r DraftRecord) Draft() (Draft, error) {
	highlights := []annotation.Range{}
	if len(r.Highlights) > 0 {
		if err := json.Unmarshal(r.Highlights, &highlights); err != nil {
			return Draft{}, err
		}
	}
	return Draft{
		SubmissionQuestionID: r.SubmissionQuestionID,
		Mode:                 r.Mode,
		Feedback:             r.Feedback,
		SuggestedScore:       r.SuggestedScore,
		AIGenerated:          r.AIGenerated,
		Highlights:           highlights,
		Revision:             r.Revision,
		UpdatedAt:            r.UpdatedAt,
	}, nil
}
