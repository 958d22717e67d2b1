package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"livequiz-service/internal/domain"
)

// QuestionLoader fetches question content from a backing store (e.g., Postgres).
type QuestionLoader interface {
	LoadQuestion(ctx context.Context, id string) (domain.Question, error)
}

// QuestionRepository caches questions in Redis (hash per question) and falls
// back to a loader on cache miss. Fields are stored as:
//
//	HSET livequiz:question:{id} text ... category ... correct ... distractors <json> points <int> time_limit <int> explanation ...
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	key := r.questionKey(id)

	fields, err := r.client.HGetAll(ctx, key).Result()
	if err == nil && len(fields) > 0 {
		return questionFromHash(id, fields)
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		fields, err := r.client.HGetAll(ctx, key).Result()
		if err == nil && len(fields) > 0 {
			question, err := questionFromHash(id, fields)
			if err != nil {
				return domain.Question{}, err
			}
			return question, nil
		}

		question, err := r.loader.LoadQuestion(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}

		distractors, err := json.Marshal(question.Distractors)
		if err != nil {
			return domain.Question{}, err
		}
		pipe := r.client.Pipeline()
		pipe.HSet(ctx, key,
			"text", question.Text,
			"category", question.Category,
			"correct", question.CorrectAnswer,
			"distractors", string(distractors),
			"points", question.Points,
			"time_limit", question.TimeLimit,
			"explanation", question.Explanation,
		)
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return question, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (r *QuestionRepository) questionKey(id string) string {
	return "livequiz:question:" + id
}

func questionFromHash(id string, fields map[string]string) (domain.Question, error) {
	var distractors []string
	if raw, ok := fields["distractors"]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &distractors); err != nil {
			return domain.Question{}, err
		}
	}
	points, _ := strconv.Atoi(fields["points"])
	timeLimit, _ := strconv.Atoi(fields["time_limit"])
	return domain.Question{
		ID:            id,
		Text:          fields["text"],
		Category:      fields["category"],
		CorrectAnswer: fields["correct"],
		Distractors:   distractors,
		Points:        points,
		TimeLimit:     timeLimit,
		Explanation:   fields["explanation"],
	}, nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
