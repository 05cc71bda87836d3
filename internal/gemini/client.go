// Package gemini calls the Gemini generateContent API to produce
// multiple-choice quiz questions.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"studyquiz-service/internal/domain"
)

const (
	// DefaultURL targets the flash model; overridable for tests and upgrades.
	DefaultURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

	defaultQuestionCount = 15
	defaultMaxAttempts   = 3
	defaultRetryInterval = 2 * time.Second
)

// errRateLimited marks upstream 429 responses, the only retryable failure.
var errRateLimited = errors.New("generator rate limited")

// Client generates quiz questions via Gemini. Rate-limited calls are retried
// with exponential backoff; exhausting the retries surfaces
// domain.ErrGenerationUnavailable so callers can answer with a transient
// service-unavailable instead of a hard failure.
type Client struct {
	httpClient    *http.Client
	apiKey        string
	url           string
	questionCount int
	maxAttempts   int
	retryInterval time.Duration
}

// Option customizes a Client.
type Option func(*Client)

func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

func WithQuestionCount(n int) Option {
	return func(c *Client) { c.questionCount = n }
}

func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = n }
}

func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) { c.retryInterval = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		apiKey:        apiKey,
		url:           DefaultURL,
		questionCount: defaultQuestionCount,
		maxAttempts:   defaultMaxAttempts,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateQuestions asks Gemini for a question set matching the spec.
func (c *Client) GenerateQuestions(ctx context.Context, spec domain.QuizSpec) ([]domain.Question, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval

	var questions []domain.Question
	err := backoff.Retry(func() error {
		qs, err := c.generateOnce(ctx, spec)
		if err != nil {
			if errors.Is(err, errRateLimited) {
				return err
			}
			return backoff.Permanent(err)
		}
		questions = qs
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxAttempts-1)), ctx))
	if err != nil {
		if errors.Is(err, errRateLimited) {
			return nil, domain.ErrGenerationUnavailable
		}
		return nil, err
	}
	return questions, nil
}

func (c *Client) generateOnce(ctx context.Context, spec domain.QuizSpec) ([]domain.Question, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: c.prompt(spec)}}}},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"?key="+c.apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call generator: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generator returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode generator response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("generator returned no candidates")
	}

	return parseQuestions(parsed.Candidates[0].Content.Parts[0].Text)
}

func (c *Client) prompt(spec domain.QuizSpec) string {
	return fmt.Sprintf(`Generate %d multiple choice quiz questions on %s focusing on the topic of %s with %s difficulty.
The questions should be designed for Class 7 students, ensuring they align with their curriculum.
Format the response as an array of JSON objects like this:
    {
      "question": "Question text",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correctAnswer": "Option B"
    }`, c.questionCount, spec.Subject, spec.Topic, spec.Difficulty)
}

// parseQuestions strips markdown code fences the model tends to wrap its
// output in, then decodes and sanity-checks the question array.
func parseQuestions(text string) ([]domain.Question, error) {
	clean := strings.TrimSpace(strings.NewReplacer("```json", "", "```", "").Replace(text))

	var questions []domain.Question
	if err := json.Unmarshal([]byte(clean), &questions); err != nil {
		return nil, fmt.Errorf("invalid JSON from generator: %w", err)
	}
	if len(questions) == 0 {
		return nil, errors.New("generator returned an empty question set")
	}
	for i, q := range questions {
		if q.Question == "" || len(q.Options) != 4 {
			return nil, fmt.Errorf("question %d is malformed", i)
		}
		valid := false
		for _, opt := range q.Options {
			if opt == q.CorrectAnswer {
				valid = true
				break
			}
		}
		if !valid {
			return nil, fmt.Errorf("question %d has no matching correct answer", i)
		}
	}
	return questions, nil
}
