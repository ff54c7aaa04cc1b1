// Package gemini wraps the Google GenAI client for the two LLM collaborator
// roles of the scoring pipeline: semantic judgment of interview answers and
// text embedding generation.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/RextonRZ/equallens-scoring/internal/model"
	"github.com/RextonRZ/equallens-scoring/internal/resilience"
)

const (
	defaultJudgeModel = "gemini-2.0-flash"
	defaultEmbedModel = "gemini-embedding-001"
)

// Client defines the Gemini operations used by the pipeline.
type Client interface {
	// JudgeResponse scores an answer's substance and job fit on a 0-10 scale.
	// A response that cannot be parsed into a complete judgment is an error,
	// never a partial result.
	JudgeResponse(ctx context.Context, req JudgeRequest) (*model.SemanticJudgment, error)

	// EmbedTexts returns one embedding vector per input text, in order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// JudgeRequest carries the judged answer and its context. JobDescription may
// be empty; the caller decides what an absent description means for job fit.
type JudgeRequest struct {
	Question       string
	Transcript     string
	JobDescription string
}

type genaiClient struct {
	client     *genai.Client
	judgeModel string
	embedModel string
	limiter    *rate.Limiter
	gate       *resilience.Gate
	retry      resilience.RetryConfig
	timeout    time.Duration
}

// Option configures the client.
type Option func(*genaiClient)

// WithGate bounds concurrent calls with a shared gate.
func WithGate(g *resilience.Gate) Option {
	return func(c *genaiClient) { c.gate = g }
}

// WithRetry overrides the default retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *genaiClient) { c.retry = cfg }
}

// WithTimeout bounds each API attempt. Non-positive values disable the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *genaiClient) { c.timeout = d }
}

// NewClient creates a Gemini client for the API backend. rpm caps the
// request rate across both operations; rpm <= 0 disables the limiter.
func NewClient(ctx context.Context, apiKey, judgeModel, embedModel string, rpm int, opts ...Option) (Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, eris.New("gemini: api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}

	if judgeModel = strings.TrimSpace(judgeModel); judgeModel == "" {
		judgeModel = defaultJudgeModel
	}
	if embedModel = strings.TrimSpace(embedModel); embedModel == "" {
		embedModel = defaultEmbedModel
	}

	var limiter *rate.Limiter
	if rpm > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
	}

	c := &genaiClient{
		client:     client,
		judgeModel: judgeModel,
		embedModel: embedModel,
		limiter:    limiter,
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

const judgeSystemPrompt = `You are an interview assessor. Score the candidate's answer on two axes:
- substance_score (0-10): concrete detail, examples and depth over generic filler.
- job_fit_score (0-10): alignment between the answer and the job description.
If no job description is provided, set job_fit_score to 0 and say so in job_fit_reasoning.
Respond with ONLY a JSON object:
{"substance_score": <int>, "job_fit_score": <int>, "substance_reasoning": "<string>", "job_fit_reasoning": "<string>"}`

func (c *genaiClient) JudgeResponse(ctx context.Context, req JudgeRequest) (*model.SemanticJudgment, error) {
	if strings.TrimSpace(req.Transcript) == "" {
		return nil, eris.New("gemini: transcript must not be empty")
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Interview question:\n%s\n\n", req.Question)
	fmt.Fprintf(&prompt, "Candidate answer:\n%s\n\n", req.Transcript)
	if strings.TrimSpace(req.JobDescription) != "" {
		fmt.Fprintf(&prompt, "Job description:\n%s\n", req.JobDescription)
	} else {
		prompt.WriteString("Job description: (not provided)\n")
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(judgeSystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}
	resp, err := doGated(ctx, c, "gemini.judge", func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return c.client.Models.GenerateContent(ctx, c.judgeModel, genai.Text(prompt.String()), cfg)
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: judge response")
	}

	return ParseJudgment(responseText(resp))
}

// ParseJudgment parses the model's JSON reply into a SemanticJudgment,
// tolerating markdown code fences. Out-of-range scores are contract
// violations and fail the parse.
func ParseJudgment(raw string) (*model.SemanticJudgment, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, eris.New("gemini: empty judgment response")
	}

	var j model.SemanticJudgment
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		return nil, eris.Wrap(err, "gemini: parse judgment")
	}
	if j.SubstanceScore < 0 || j.SubstanceScore > 10 || j.JobFitScore < 0 || j.JobFitScore > 10 {
		return nil, eris.Errorf("gemini: judgment scores out of range: substance=%d job_fit=%d",
			j.SubstanceScore, j.JobFitScore)
	}
	return &j, nil
}

func (c *genaiClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, eris.New("gemini: no texts to embed")
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	resp, err := doGated(ctx, c, "gemini.embed", func(ctx context.Context) (*genai.EmbedContentResponse, error) {
		return c.client.Models.EmbedContent(ctx, c.embedModel, contents, nil)
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: embed texts")
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, eris.Errorf("gemini: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, eris.Errorf("gemini: empty embedding at index %d", i)
		}
		out[i] = e.Values
	}
	return out, nil
}

// doGated runs one API call under the shared concurrency gate and the retry
// policy. Generic because the two operations return different response types.
// The per-attempt timeout starts after the gate admits the call, so queue
// wait does not count against it.
func doGated[T any](ctx context.Context, c *genaiClient, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	if c.timeout > 0 {
		inner := fn
		fn = func(ctx context.Context) (T, error) {
			ctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			return inner(ctx)
		}
	}

	gated := fn
	if c.gate != nil {
		gated = func(ctx context.Context) (T, error) {
			var out T
			err := c.gate.With(ctx, func(ctx context.Context) error {
				var callErr error
				out, callErr = fn(ctx)
				return callErr
			})
			return out, err
		}
	}
	return resilience.DoVal(ctx, c.retry, op, gated)
}

func (c *genaiClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "gemini: rate limit wait")
	}
	return nil
}

// responseText flattens the first candidate's text parts.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}
