package service

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/gema-daily-challenge/internal/dto"
	"github.com/noah-isme/gema-daily-challenge/internal/models"
)

//go:embed schemas/section.schema.json
var sectionSchemaSource string

var sectionSchema = jsonschema.MustCompileString("section.schema.json", sectionSchemaSource)

// SectionService manages the sections and questions of a challenge.
type SectionService interface {
	List(ctx context.Context, challengeID int64, query dto.PageQuery) (dto.ListResponse[models.SectionWithQuestions], error)
	Save(ctx context.Context, challengeID int64, raw []byte) (models.SectionWithQuestions, error)
	Bulk(ctx context.Context, challengeID int64, payload dto.BulkSectionRequest) error
}

type sectionService struct {
	backend   SectionBackend
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSectionService constructs the section service.
func NewSectionService(backend SectionBackend, validate *validator.Validate, logger zerolog.Logger) SectionService {
	return &sectionService{
		backend:   backend,
		validator: validate,
		logger:    logger.With().Str("component", "section_service").Logger(),
	}
}

func (s *sectionService) List(ctx context.Context, challengeID int64, query dto.PageQuery) (dto.ListResponse[models.SectionWithQuestions], error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.ListResponse[models.SectionWithQuestions]{}, err
	}

	page, err := s.backend.ListSections(ctx, challengeID, listQuery(query))
	if err != nil {
		return dto.ListResponse[models.SectionWithQuestions]{}, challengeError(err)
	}
	return dto.ListResponse[models.SectionWithQuestions]{Items: page.Items, Total: page.Total}, nil
}

func (s *sectionService) Save(ctx context.Context, challengeID int64, raw []byte) (models.SectionWithQuestions, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-daily-challenge/internal/service/section")
	ctx, span := tracer.Start(ctx, "section.save")
	span.SetAttributes(attribute.Int64("section.challenge_id", challengeID))
	defer span.End()

	payload, err := DecodeSectionPayload(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_payload")
		return models.SectionWithQuestions{}, err
	}

	saved, err := s.backend.SaveSection(ctx, challengeID, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend_failed")
		return models.SectionWithQuestions{}, challengeError(err)
	}

	s.logger.Info().
		Int64("challenge_id", challengeID).
		Int64("section_id", saved.Section.ID).
		Int("questions", len(payload.Questions)).
		Msg("section saved")
	return saved, nil
}

func (s *sectionService) Bulk(ctx context.Context, challengeID int64, payload dto.BulkSectionRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}
	if err := checkBulkRequest(payload); err != nil {
		return err
	}

	if err := s.backend.BulkSections(ctx, challengeID, payload.Model()); err != nil {
		return challengeError(err)
	}

	s.logger.Info().
		Int64("challenge_id", challengeID).
		Int("deleted", len(payload.DeleteSectionIDs)).
		Int("reordered", len(payload.Orders)).
		Msg("sections updated in bulk")
	return nil
}

// DecodeSectionPayload validates raw against the section schema and the
// per-type content rules, then decodes it.
func DecodeSectionPayload(raw []byte) (models.SectionWithQuestions, error) {
	var document interface{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&document); err != nil {
		return models.SectionWithQuestions{}, &PayloadError{
			Err:      ErrInvalidSectionPayload,
			Problems: []Problem{{Location: "", Message: "body is not valid JSON"}},
		}
	}

	if err := sectionSchema.Validate(document); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return models.SectionWithQuestions{}, &PayloadError{Err: ErrInvalidSectionPayload, Problems: schemaProblems(validationErr)}
		}
		return models.SectionWithQuestions{}, fmt.Errorf("%w: %v", ErrInvalidSectionPayload, err)
	}

	var payload models.SectionWithQuestions
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.SectionWithQuestions{}, fmt.Errorf("%w: %v", ErrInvalidSectionPayload, err)
	}

	if problems := contentProblems(payload.Questions); len(problems) > 0 {
		return models.SectionWithQuestions{}, &PayloadError{Err: ErrInvalidSectionPayload, Problems: problems}
	}

	return payload, nil
}

func schemaProblems(err *jsonschema.ValidationError) []Problem {
	output := err.BasicOutput()
	problems := make([]Problem, 0, len(output.Errors))
	for _, item := range output.Errors {
		// Container errors only repeat their causes.
		if item.Error == "" || strings.HasPrefix(item.Error, "doesn't validate with") {
			continue
		}
		problems = append(problems, Problem{Location: item.InstanceLocation, Message: item.Error})
	}
	if len(problems) == 0 {
		problems = append(problems, Problem{Location: err.InstanceLocation, Message: err.Message})
	}
	return problems
}

func contentProblems(questions []models.Question) []Problem {
	var problems []Problem
	seenOrder := map[int]int{}

	for index, question := range questions {
		if question.ToBeDeleted {
			continue
		}
		location := fmt.Sprintf("/questions/%d", index)

		if previous, ok := seenOrder[question.OrderNumber]; ok {
			problems = append(problems, Problem{
				Location: location + "/orderNumber",
				Message:  fmt.Sprintf("order number %d already used by question %d", question.OrderNumber, previous),
			})
		} else {
			seenOrder[question.OrderNumber] = index
		}

		items := question.Content.Data
		correct := 0
		for _, item := range items {
			if item.Correct != nil && *item.Correct {
				correct++
			}
		}

		switch question.QuestionType {
		case models.QuestionMultipleChoice, models.QuestionTrueFalse, models.QuestionDropdown:
			if len(items) < 2 {
				problems = append(problems, Problem{Location: location + "/content/data", Message: "at least two options are required"})
			}
			if correct != 1 {
				problems = append(problems, Problem{Location: location + "/content/data", Message: "exactly one option must be correct"})
			}
		case models.QuestionMultipleSelect:
			if len(items) < 2 {
				problems = append(problems, Problem{Location: location + "/content/data", Message: "at least two options are required"})
			}
			if correct == 0 {
				problems = append(problems, Problem{Location: location + "/content/data", Message: "at least one option must be correct"})
			}
		case models.QuestionFillInBlank, models.QuestionDragAndDrop, models.QuestionRearrange:
			if len(items) == 0 {
				problems = append(problems, Problem{Location: location + "/content/data", Message: "at least one position is required"})
			}
			for itemIndex, item := range items {
				if item.Position == nil {
					problems = append(problems, Problem{
						Location: fmt.Sprintf("%s/content/data/%d/positionId", location, itemIndex),
						Message:  "position is required",
					})
				}
			}
		case models.QuestionShortAnswer:
			if len(items) == 0 {
				problems = append(problems, Problem{Location: location + "/content/data", Message: "at least one accepted answer is required"})
			}
		}
	}

	return problems
}

func checkBulkRequest(payload dto.BulkSectionRequest) error {
	var problems []Problem
	if len(payload.DeleteSectionIDs) == 0 && len(payload.Orders) == 0 {
		problems = append(problems, Problem{Location: "", Message: "nothing to delete or reorder"})
	}

	deleted := map[int64]struct{}{}
	for _, id := range payload.DeleteSectionIDs {
		deleted[id] = struct{}{}
	}

	seenSections := map[int64]struct{}{}
	seenOrders := map[int]struct{}{}
	for index, order := range payload.Orders {
		location := fmt.Sprintf("/sectionOrders/%d", index)
		if _, ok := deleted[order.SectionID]; ok {
			problems = append(problems, Problem{Location: location + "/sectionId", Message: "section is also being deleted"})
		}
		if _, ok := seenSections[order.SectionID]; ok {
			problems = append(problems, Problem{Location: location + "/sectionId", Message: "section listed twice"})
		}
		seenSections[order.SectionID] = struct{}{}
		if _, ok := seenOrders[order.SectionsOrder]; ok {
			problems = append(problems, Problem{Location: location + "/sectionsOrder", Message: "order values must be unique"})
		}
		seenOrders[order.SectionsOrder] = struct{}{}
	}

	if len(problems) > 0 {
		return &PayloadError{Err: ErrInvalidBulkRequest, Problems: problems}
	}
	return nil
}
