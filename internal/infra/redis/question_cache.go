package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"studyquiz-service/internal/app"
	"studyquiz-service/internal/domain"
)

// QuestionCache stores generated question sets in Redis so every instance
// serving the same test code hands out the same questions.
// Layout: SET quiz:{code}:questions {json array} EX ttl
type QuestionCache struct {
	client    *redis.Client
	generator app.Generator
	ttl       time.Duration
	sf        singleflight.Group
	rnd       *rand.Rand
}

func NewQuestionCache(client *redis.Client, generator app.Generator, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client:    client,
		generator: generator,
		ttl:       ttl,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) QuestionsForCode(ctx context.Context, code string, spec domain.QuizSpec) ([]domain.Question, error) {
	key := c.key(code)

	if questions, ok := c.cached(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(code, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := c.cached(ctx, key); ok {
			return questions, nil
		}

		questions, err := c.generator.GenerateQuestions(ctx, spec)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(questions)
		if err != nil {
			return nil, err
		}
		// Best effort; a failed cache write only costs a regeneration.
		_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()

		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, false
	}
	return questions, len(questions) > 0
}

func (c *QuestionCache) key(code string) string {
	return "quiz:" + code + ":questions"
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
