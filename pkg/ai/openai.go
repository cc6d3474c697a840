package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	reviewDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "writing_review_duration_seconds",
		Help:      "Duration of AI writing review requests",
	}, []string{"model"})

	reviewFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "writing_review_failures_total",
		Help:      "Number of AI writing review failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI reviewer.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIReviewer implements WritingReviewer against the chat completion API.
type OpenAIReviewer struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIReviewer builds a reviewer using the provided configuration.
func NewOpenAIReviewer(cfg OpenAIConfig) (*OpenAIReviewer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 800
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIReviewer{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-daily-challenge/pkg/ai/openai"),
		logger: cfg.Logger.With().Str("component", "openai_reviewer").Logger(),
	}, nil
}

// ReviewWriting sends the answer to OpenAI and parses the JSON review.
func (r *OpenAIReviewer) ReviewWriting(parent context.Context, input WritingInput) (WritingFeedback, error) {
	ctx, span := r.tracer.Start(parent, "openai.review_writing", trace.WithAttributes(
		attribute.String("model", r.cfg.Model),
		attribute.Int("answer_length", len([]rune(input.AnswerText))),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       r.cfg.Model,
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: reviewerSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildWritingPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := r.client.CreateChatCompletion(ctx, request)
	reviewDuration.WithLabelValues(r.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return WritingFeedback{}, r.fail(span, fmt.Errorf("openai review: %w", err))
	}

	if len(resp.Choices) == 0 {
		return WritingFeedback{}, r.fail(span, fmt.Errorf("no choices returned from openai"))
	}

	result, err := parseWritingResponse(strings.TrimSpace(resp.Choices[0].Message.Content), input.MaxScore)
	if err != nil {
		return WritingFeedback{}, r.fail(span, err)
	}
	result.Model = r.cfg.Model

	r.logger.Debug().
		Int("highlights", len(result.Highlights)).
		Int("total_tokens", resp.Usage.TotalTokens).
		Msg("writing review generated")

	return result, nil
}

func (r *OpenAIReviewer) fail(span trace.Span, err error) error {
	reviewFailures.WithLabelValues(r.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	r.logger.Warn().Err(err).Msg("writing review failed")
	return err
}

func reviewerSystemPrompt() string {
	return "You are an English teacher reviewing a student's written answer. Respond with a JSON object containing " +
		"feedback (string, encouraging and specific), suggestedScore (number between 0 and the maximum score) and " +
		"highlights (array of objects with excerpt, copied verbatim from the answer, and comment)."
}

func buildWritingPrompt(input WritingInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Question\n")
	builder.WriteString(input.QuestionText)
	builder.WriteString("\n\n## Maximum Score\n")
	builder.WriteString(fmt.Sprintf("%g", input.MaxScore))
	builder.WriteString("\n\n## Student Answer\n")
	builder.WriteString(input.AnswerText)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseWritingResponse(content string, maxScore float64) (WritingFeedback, error) {
	var data WritingFeedback
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return WritingFeedback{}, fmt.Errorf("parse review json: %w", err)
	}

	data.Feedback = strings.TrimSpace(data.Feedback)
	if data.Feedback == "" {
		return WritingFeedback{}, fmt.Errorf("review json has no feedback")
	}

	if data.SuggestedScore != nil {
		score := *data.SuggestedScore
		if score < 0 {
			score = 0
		}
		if maxScore > 0 && score > maxScore {
			score = maxScore
		}
		data.SuggestedScore = &score
	}

	highlights := data.Highlights[:0]
	for _, h := range data.Highlights {
		if strings.TrimSpace(h.Excerpt) == "" || strings.TrimSpace(h.Comment) == "" {
			continue
		}
		highlights = append(highlights, h)
	}
	data.Highlights = highlights

	return data, nil
}
