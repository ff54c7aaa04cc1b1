// Package gnl provides a client for the Google Cloud Natural Language REST
// API, used as the syntax and sentiment collaborator for transcript analysis.
package gnl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Annotator defines the NLP operations used by the linguistic extractor.
type Annotator interface {
	// Annotate returns document sentiment plus the token and sentence streams
	// for the given text.
	Annotate(ctx context.Context, text string) (*Annotation, error)
}

// Annotation is the parsed analysis result for one document.
type Annotation struct {
	Sentiment Sentiment  `json:"documentSentiment"`
	Sentences []Sentence `json:"sentences"`
	Tokens    []Token    `json:"tokens"`
}

// Sentiment holds document-level sentiment: score in [-1, 1] and a
// non-negative magnitude.
type Sentiment struct {
	Score     float64 `json:"score"`
	Magnitude float64 `json:"magnitude"`
}

// Sentence is one sentence of the analyzed document.
type Sentence struct {
	Text string `json:"-"`
}

// Token is one token with its lemma and coarse part-of-speech tag
// (NOUN, VERB, ADJ, ADV, PRON, PUNCT, ...).
type Token struct {
	Text         string `json:"-"`
	Lemma        string `json:"lemma"`
	PartOfSpeech string `json:"-"`
}

// wire types mirroring the annotateText response shape.

type textSpan struct {
	Content string `json:"content"`
}

type wireSentence struct {
	Text textSpan `json:"text"`
}

type wirePartOfSpeech struct {
	Tag string `json:"tag"`
}

type wireToken struct {
	Text         textSpan         `json:"text"`
	Lemma        string           `json:"lemma"`
	PartOfSpeech wirePartOfSpeech `json:"partOfSpeech"`
}

type annotateResponse struct {
	Sentences         []wireSentence `json:"sentences"`
	Tokens            []wireToken    `json:"tokens"`
	DocumentSentiment Sentiment      `json:"documentSentiment"`
}

type annotateRequest struct {
	Document struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	} `json:"document"`
	Features struct {
		ExtractSyntax            bool `json:"extractSyntax"`
		ExtractDocumentSentiment bool `json:"extractDocumentSentiment"`
	} `json:"features"`
	EncodingType string `json:"encodingType"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout. Non-positive values keep the
// current timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Natural Language API client.
func NewClient(apiKey string, opts ...Option) Annotator {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://language.googleapis.com",
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes the request with exponential backoff retries on transient
// failures. Returns the response body and status code.
func (c *httpClient) retryDo(ctx context.Context, makeReq func() (*http.Request, error)) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := makeReq()
		if err != nil {
			return nil, 0, err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "gnl: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("gnl: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) Annotate(ctx context.Context, text string) (*Annotation, error) {
	var reqBody annotateRequest
	reqBody.Document.Type = "PLAIN_TEXT"
	reqBody.Document.Content = text
	reqBody.Features.ExtractSyntax = true
	reqBody.Features.ExtractDocumentSentiment = true
	reqBody.EncodingType = "UTF8"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "gnl: marshal request")
	}

	reqURL := fmt.Sprintf("%s/v1/documents:annotateText?key=%s", c.baseURL, c.apiKey)
	makeReq := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
		if err != nil {
			return nil, eris.Wrap(err, "gnl: create request")
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	body, statusCode, err := c.retryDo(ctx, makeReq)
	if err != nil {
		return nil, eris.Wrap(err, "gnl: request failed")
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("gnl: unexpected status %d: %s", statusCode, string(body))
	}

	var wire annotateResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, eris.Wrap(err, "gnl: unmarshal response")
	}

	out := &Annotation{Sentiment: wire.DocumentSentiment}
	for _, s := range wire.Sentences {
		out.Sentences = append(out.Sentences, Sentence{Text: s.Text.Content})
	}
	for _, t := range wire.Tokens {
		out.Tokens = append(out.Tokens, Token{
			Text:         t.Text.Content,
			Lemma:        t.Lemma,
			PartOfSpeech: t.PartOfSpeech.Tag,
		})
	}
	return out, nil
}
