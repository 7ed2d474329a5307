package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pageza/recipeforge/backend/internal/logger"
	"github.com/pageza/recipeforge/backend/internal/pipeline"
)

var (
	// ErrEmptyInput is returned when neither recipe text nor a prompt was given.
	ErrEmptyInput = errors.New("recipe text or prompt is required")
	// ErrTextGeneration wraps failures of the model call itself.
	ErrTextGeneration = errors.New("text generation failed")
)

// ProduceInput selects what the model is asked to do. Exactly one field is used;
// Text wins when both are set.
type ProduceInput struct {
	// Text is free recipe text to be structured.
	Text string
	// Prompt is a request for a new recipe.
	Prompt string
}

func (in ProduceInput) mode() string {
	if strings.TrimSpace(in.Text) != "" {
		return "format"
	}
	return "ask"
}

func (in ProduceInput) messages() (string, string, error) {
	switch {
	case strings.TrimSpace(in.Text) != "":
		return formatSystemPrompt, FormatRecipePrompt(in.Text), nil
	case strings.TrimSpace(in.Prompt) != "":
		return askSystemPrompt, AskRecipePrompt(in.Prompt), nil
	default:
		return "", "", ErrEmptyInput
	}
}

// RecipeProducer asks the model for a recipe and runs its reply through the
// recovery pipeline, retrying the whole round trip on any failure.
type RecipeProducer struct {
	llm      TextGenerator
	attempts int
	options  pipeline.Options
	archiver FailureArchiver
	log      *logger.Logger
}

type ProducerOption func(*RecipeProducer)

// WithAttempts sets the attempt budget for Produce.
func WithAttempts(n int) ProducerOption {
	return func(p *RecipeProducer) { p.attempts = n }
}

func WithPipelineOptions(opts pipeline.Options) ProducerOption {
	return func(p *RecipeProducer) { p.options = opts }
}

// WithArchiver uploads final failures through a.
func WithArchiver(a FailureArchiver) ProducerOption {
	return func(p *RecipeProducer) { p.archiver = a }
}

func NewRecipeProducer(llm TextGenerator, log *logger.Logger, opts ...ProducerOption) *RecipeProducer {
	p := &RecipeProducer{
		llm:      llm,
		attempts: pipeline.DefaultAttempts,
		log:      log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Produce runs the retried pipeline and returns the validated document.
func (p *RecipeProducer) Produce(ctx context.Context, in ProduceInput, authorID string) (*pipeline.Document, error) {
	return p.run(ctx, in, authorID, p.attempts)
}

// Once runs a single attempt with no retry.
func (p *RecipeProducer) Once(ctx context.Context, in ProduceInput, authorID string) (*pipeline.Document, error) {
	return p.run(ctx, in, authorID, 1)
}

func (p *RecipeProducer) run(ctx context.Context, in ProduceInput, authorID string, attempts int) (*pipeline.Document, error) {
	system, user, err := in.messages()
	if err != nil {
		return nil, err
	}

	doc, err := pipeline.Retry(ctx, attempts, p.log, func(ctx context.Context, attempt int) (*pipeline.Document, error) {
		raw, err := p.llm.Complete(ctx, system, user)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTextGeneration, err)
		}
		return pipeline.Process(raw, authorID, p.options)
	})
	if err != nil {
		p.archive(ctx, in, authorID, attempts, err)
		return nil, err
	}
	return doc, nil
}

func (p *RecipeProducer) archive(ctx context.Context, in ProduceInput, authorID string, attempts int, err error) {
	if p.archiver == nil || errors.Is(err, context.Canceled) {
		return
	}

	failure := &PipelineFailure{
		Mode:     in.mode(),
		AuthorID: authorID,
		Input:    in.Text + in.Prompt,
		Kind:     "llm_error",
		Attempts: attempts,
		Error:    err.Error(),
	}
	if perr, ok := pipeline.AsError(err); ok {
		failure.Kind = perr.KindName()
		failure.Path = perr.Path
		failure.Raw = perr.Raw
		failure.Attempts = perr.Attempt
	}

	archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	key, archiveErr := p.archiver.Archive(archiveCtx, failure)
	if archiveErr != nil {
		p.log.Error("failed to archive pipeline failure", "error", archiveErr)
		return
	}
	p.log.Info("archived pipeline failure", "key", key, "kind", failure.Kind)
}
