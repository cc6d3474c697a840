package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/gema-daily-challenge/internal/annotation"
	"github.com/noah-isme/gema-daily-challenge/internal/feedback"
	"github.com/noah-isme/gema-daily-challenge/internal/models"
	"github.com/noah-isme/gema-daily-challenge/internal/repository"
	"github.com/noah-isme/gema-daily-challenge/internal/upstream"
)

// draftKeeper owns draft persistence for the grading services. Every write
// bumps the fence of the submission question, which invalidates in-flight
// AI and grading requests started before the write.
type draftKeeper struct {
	store repository.DraftStore
	fence *feedback.Fence
	now   func() time.Time
}

func newDraftKeeper(store repository.DraftStore, fence *feedback.Fence) *draftKeeper {
	if fence == nil {
		fence = feedback.NewFence()
	}
	return &draftKeeper{store: store, fence: fence, now: time.Now}
}

func fenceKey(submissionQuestionID int64) string {
	return fmt.Sprintf("submission-question:%d", submissionQuestionID)
}

// load returns the stored draft, or a fresh one when none exists.
func (k *draftKeeper) load(ctx context.Context, submissionQuestionID int64) (models.Draft, bool, error) {
	draft, err := k.store.Get(ctx, submissionQuestionID)
	if err != nil {
		if errors.Is(err, repository.ErrDraftNotFound) {
			return models.Draft{
				SubmissionQuestionID: submissionQuestionID,
				Mode:                 string(feedback.ChoosingMode),
				Highlights:           []annotation.Range{},
			}, false, nil
		}
		return models.Draft{}, false, err
	}
	if draft.Highlights == nil {
		draft.Highlights = []annotation.Range{}
	}
	return draft, true, nil
}

func (k *draftKeeper) save(ctx context.Context, draft models.Draft) (models.Draft, error) {
	draft.Revision++
	draft.UpdatedAt = k.now().UTC()
	k.fence.Bump(fenceKey(draft.SubmissionQuestionID))
	if err := k.store.Set(ctx, draft); err != nil {
		return models.Draft{}, err
	}
	return draft, nil
}

func (k *draftKeeper) clear(ctx context.Context, submissionQuestionID int64) error {
	k.fence.Bump(fenceKey(submissionQuestionID))
	return k.store.Clear(ctx, submissionQuestionID)
}

// highlightSet loads the draft highlights into a Set stamped by the keeper clock.
func (k *draftKeeper) highlightSet(draft models.Draft) *annotation.Set {
	set := annotation.NewSet(annotation.WithClock(k.now))
	set.Restore(draft.Highlights)
	return set
}

// loadOrSeed returns the stored draft or, without one, a draft seeded from the
// grading already saved on the backend.
func (k *draftKeeper) loadOrSeed(ctx context.Context, backend GradingBackend, submissionQuestionID int64) (models.Draft, error) {
	draft, stored, err := k.load(ctx, submissionQuestionID)
	if err != nil || stored {
		return draft, err
	}

	grading, err := backend.GetGrading(ctx, submissionQuestionID)
	if err != nil {
		if upstream.IsNotFound(err) {
			return draft, nil
		}
		return models.Draft{}, err
	}
	draft.Feedback = grading.Feedback
	draft.Highlights = rangesFromComments(submissionQuestionID, grading.HighlightComments)
	draft.Mode = string(feedback.InitialState(feedback.ChoosingMode, grading.Feedback != "", false))
	return draft, nil
}
