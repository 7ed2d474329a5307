package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipeforge/backend/internal/logger"
	"github.com/pageza/recipeforge/backend/internal/pipeline"
	"github.com/pageza/recipeforge/backend/internal/testhelpers"
)

type recordingArchiver struct {
	mu       sync.Mutex
	failures []*PipelineFailure
}

func (a *recordingArchiver) Archive(ctx context.Context, failure *PipelineFailure) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures = append(a.failures, failure)
	return "pipeline-failures/test.json", nil
}

func TestRecipeProducer_EmptyInput(t *testing.T) {
	p := NewRecipeProducer(&testhelpers.MockTextGenerator{}, logger.Nop())
	_, err := p.Produce(context.Background(), ProduceInput{Text: "  "}, "author")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestRecipeProducer_AttemptBudget(t *testing.T) {
	llm := &testhelpers.MockTextGenerator{}
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("no json here", nil)

	p := NewRecipeProducer(llm, logger.Nop(), WithAttempts(5))
	_, err := p.Produce(context.Background(), ProduceInput{Prompt: "soup"}, "author")
	require.ErrorIs(t, err, pipeline.ErrNoJSONFound)
	llm.AssertNumberOfCalls(t, "Complete", 5)
}

func TestRecipeProducer_ZeroDenominatorPolicy(t *testing.T) {
	reply := strings.Replace(validReply, `"1 1/2"`, `"1/0"`, 1)

	strict := &testhelpers.MockTextGenerator{}
	strict.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(reply, nil)
	_, err := NewRecipeProducer(strict, logger.Nop()).Once(context.Background(), ProduceInput{Text: "x"}, "author")
	assert.ErrorIs(t, err, pipeline.ErrInvalidNumericLiteral)

	lenient := &testhelpers.MockTextGenerator{}
	lenient.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(reply, nil)
	p := NewRecipeProducer(lenient, logger.Nop(), WithPipelineOptions(pipeline.Options{ZeroDenominator: pipeline.ZeroOnDegenerate}))
	doc, err := p.Once(context.Background(), ProduceInput{Text: "x"}, "author")
	require.NoError(t, err)
	assert.Zero(t, doc.Ingredients[0].Quantity)
}

func TestRecipeProducer_ArchivesFinalFailure(t *testing.T) {
	llm := &testhelpers.MockTextGenerator{}
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(`{"title": 7}`, nil)

	archive := &recordingArchiver{}
	p := NewRecipeProducer(llm, logger.Nop(), WithAttempts(2), WithArchiver(archive))

	_, err := p.Produce(context.Background(), ProduceInput{Text: "raw text"}, "author-1")
	require.ErrorIs(t, err, pipeline.ErrSchemaViolation)

	require.Len(t, archive.failures, 1)
	f := archive.failures[0]
	assert.Equal(t, "format", f.Mode)
	assert.Equal(t, "author-1", f.AuthorID)
	assert.Equal(t, "raw text", f.Input)
	assert.Equal(t, "schema_violation", f.Kind)
	assert.Equal(t, "title", f.Path)
	assert.Equal(t, 2, f.Attempts)
	assert.Equal(t, `{"title": 7}`, f.Raw)
}

func TestRecipeProducer_SuccessIsNotArchived(t *testing.T) {
	llm := &testhelpers.MockTextGenerator{}
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(validReply, nil)

	archive := &recordingArchiver{}
	p := NewRecipeProducer(llm, logger.Nop(), WithArchiver(archive))
	_, err := p.Produce(context.Background(), ProduceInput{Text: "x"}, "author")
	require.NoError(t, err)
	assert.Empty(t, archive.failures)
}
