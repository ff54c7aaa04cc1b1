package interview

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RextonRZ/equallens-scoring/internal/config"
	"github.com/RextonRZ/equallens-scoring/internal/linguistic"
	"github.com/RextonRZ/equallens-scoring/internal/model"
	"github.com/RextonRZ/equallens-scoring/pkg/gemini"
	"github.com/RextonRZ/equallens-scoring/pkg/gnl"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) JudgeResponse(ctx context.Context, req gemini.JudgeRequest) (*model.SemanticJudgment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SemanticJudgment), args.Error(1)
}

func (m *mockLLM) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

type mockAnnotator struct {
	mock.Mock
}

func (m *mockAnnotator) Annotate(ctx context.Context, text string) (*gnl.Annotation, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gnl.Annotation), args.Error(1)
}

func annotationFor(text string) *gnl.Annotation {
	ann := &gnl.Annotation{
		Sentiment: gnl.Sentiment{Score: 0.4, Magnitude: 1.5},
		Sentences: []gnl.Sentence{{Text: text}},
	}
	for _, w := range strings.Fields(text) {
		ann.Tokens = append(ann.Tokens, gnl.Token{Text: w, Lemma: strings.ToLower(w), PartOfSpeech: "NOUN"})
	}
	return ann
}

func goodJudgment() *model.SemanticJudgment {
	return &model.SemanticJudgment{
		SubstanceScore:     8,
		JobFitScore:        7,
		SubstanceReasoning: "concrete project outcomes",
		JobFitReasoning:    "directly relevant stack",
	}
}

func scoreRequest() ScoreRequest {
	return ScoreRequest{
		Question:       "Tell me about a system you designed.",
		JobDescription: "Backend engineer, Go and Postgres.",
		Transcript:     "I designed the ingest pipeline handling peak traffic with graceful degradation.",
	}
}

func newTestScorer(llm LLM, annotator gnl.Annotator) *Scorer {
	return NewScorer(config.DefaultScoringConfig(), linguistic.NewExtractor(annotator), llm)
}

func TestScore_EmptyTranscript(t *testing.T) {
	llm := &mockLLM{}
	ann := &mockAnnotator{}
	s := newTestScorer(llm, ann)

	req := scoreRequest()
	req.Transcript = "   \n"
	card := s.Score(context.Background(), req)

	assert.Equal(t, "Empty transcript", card.Error)
	assert.Zero(t, card.TotalScore)
	assert.Zero(t, card.Relevance)
	assert.Zero(t, card.Substance)
	require.Contains(t, card.Explanation, "relevance")
	assert.Contains(t, card.Explanation["relevance"][0].Rationale, "skipped due to empty transcript")
	llm.AssertNotCalled(t, "JudgeResponse")
	llm.AssertNotCalled(t, "EmbedTexts")
}

func TestScore_HappyPath(t *testing.T) {
	req := scoreRequest()

	llm := &mockLLM{}
	llm.On("EmbedTexts", mock.Anything, []string{req.Question, req.Transcript}).
		Return([][]float32{{1, 2, 3}, {1, 2, 3}}, nil)
	llm.On("JudgeResponse", mock.Anything, mock.Anything).Return(goodJudgment(), nil)

	ann := &mockAnnotator{}
	ann.On("Annotate", mock.Anything, req.Transcript).Return(annotationFor(req.Transcript), nil)

	card := newTestScorer(llm, ann).Score(context.Background(), req)

	assert.Empty(t, card.Error)
	assert.InDelta(t, 0.8, card.Substance, 1e-9)
	assert.InDelta(t, 0.7, card.JobFit, 1e-9)

	w := config.DefaultScoringConfig().Response.Total
	wantTotal := w.Relevance*card.Relevance + w.Confidence*card.Confidence +
		w.Clarity*card.Clarity + w.Engagement*card.Engagement +
		w.Substance*card.Substance + w.JobFit*card.JobFit
	assert.InDelta(t, wantTotal, card.TotalScore, 1e-9)

	for _, metric := range []string{"relevance", "confidence", "clarity", "engagement", "substance", "job_fit"} {
		assert.Contains(t, card.Explanation, metric)
	}
	for _, v := range []float64{card.Relevance, card.Confidence, card.Clarity, card.Engagement, card.TotalScore} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	llm.AssertExpectations(t)
	ann.AssertExpectations(t)
}

func TestScore_JudgmentFailureZeroesOnlyLLMMetrics(t *testing.T) {
	req := scoreRequest()

	llm := &mockLLM{}
	llm.On("EmbedTexts", mock.Anything, mock.Anything).
		Return([][]float32{{1, 0}, {1, 0}}, nil)
	llm.On("JudgeResponse", mock.Anything, mock.Anything).
		Return(nil, eris.New("gemini: judge response: rate limited"))

	ann := &mockAnnotator{}
	ann.On("Annotate", mock.Anything, mock.Anything).Return(annotationFor(req.Transcript), nil)

	card := newTestScorer(llm, ann).Score(context.Background(), req)

	assert.Zero(t, card.Substance)
	assert.Zero(t, card.JobFit)
	assert.Greater(t, card.Relevance, 0.0, "feature metrics survive a judgment failure")
	assert.Greater(t, card.Clarity, 0.0)
	assert.Contains(t, card.Error, "rate limited")
	assert.Contains(t, card.Explanation["substance"][0].Rationale, "semantic judgment unavailable")
	assert.Greater(t, card.TotalScore, 0.0)
}

func TestScore_MissingJobDescriptionZeroesOnlyJobFit(t *testing.T) {
	req := scoreRequest()
	req.JobDescription = ""

	llm := &mockLLM{}
	llm.On("EmbedTexts", mock.Anything, mock.Anything).
		Return([][]float32{{1, 0}, {1, 0}}, nil)
	llm.On("JudgeResponse", mock.Anything, mock.Anything).Return(goodJudgment(), nil)

	ann := &mockAnnotator{}
	ann.On("Annotate", mock.Anything, mock.Anything).Return(annotationFor(req.Transcript), nil)

	card := newTestScorer(llm, ann).Score(context.Background(), req)

	assert.Zero(t, card.JobFit)
	assert.InDelta(t, 0.8, card.Substance, 1e-9)
	assert.Empty(t, card.Error)
	assert.Contains(t, card.Explanation["job_fit"][0].Rationale, "no job description provided")
}

func TestScore_EmbeddingFailureFlagsSimilarity(t *testing.T) {
	req := scoreRequest()

	llm := &mockLLM{}
	llm.On("EmbedTexts", mock.Anything, mock.Anything).
		Return(nil, eris.New("gemini: embed texts: quota exceeded"))
	llm.On("JudgeResponse", mock.Anything, mock.Anything).Return(goodJudgment(), nil)

	ann := &mockAnnotator{}
	ann.On("Annotate", mock.Anything, mock.Anything).Return(annotationFor(req.Transcript), nil)

	card := newTestScorer(llm, ann).Score(context.Background(), req)

	assert.Contains(t, card.Error, "quota exceeded")
	found := false
	for _, c := range card.Explanation["relevance"] {
		if c.Feature == "semantic_similarity" {
			found = true
			assert.Equal(t, "failed to generate embeddings", c.Rationale)
			assert.Zero(t, c.Contribution)
		}
	}
	assert.True(t, found)
}

func TestScore_LinguisticFailureDegrades(t *testing.T) {
	req := scoreRequest()

	llm := &mockLLM{}
	llm.On("EmbedTexts", mock.Anything, mock.Anything).
		Return([][]float32{{1, 0}, {1, 0}}, nil)
	llm.On("JudgeResponse", mock.Anything, mock.Anything).Return(goodJudgment(), nil)

	ann := &mockAnnotator{}
	ann.On("Annotate", mock.Anything, mock.Anything).
		Return(nil, eris.New("gnl: request failed"))

	card := newTestScorer(llm, ann).Score(context.Background(), req)

	assert.Contains(t, card.Error, "request failed")
	// Neutral linguistic defaults still produce a bounded, complete card.
	assert.Greater(t, card.TotalScore, 0.0)
	assert.LessOrEqual(t, card.TotalScore, 1.0)
}

func TestScore_Idempotent(t *testing.T) {
	req := scoreRequest()

	llm := &mockLLM{}
	llm.On("EmbedTexts", mock.Anything, mock.Anything).
		Return([][]float32{{1, 2, 3}, {3, 2, 1}}, nil)
	llm.On("JudgeResponse", mock.Anything, mock.Anything).Return(goodJudgment(), nil)

	ann := &mockAnnotator{}
	ann.On("Annotate", mock.Anything, mock.Anything).Return(annotationFor(req.Transcript), nil)

	s := newTestScorer(llm, ann)
	assert.Equal(t, s.Score(context.Background(), req), s.Score(context.Background(), req))
}
