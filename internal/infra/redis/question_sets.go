package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"quizroom/internal/domain"
	"quizroom/internal/infra/memory"
)

// QuestionSetRepository caches question sets in Redis and falls back to a loader on cache miss.
// Title is stored as:     SET   questionset:{id}:title     {title}
// Questions are stored as: RPUSH questionset:{id}:questions {question json}...
type QuestionSetRepository struct {
	client *redis.Client
	loader memory.QuestionSetLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuestionSetRepository(client *redis.Client, loader memory.QuestionSetLoader, ttl time.Duration) *QuestionSetRepository {
	return &QuestionSetRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionSetRepository) GetQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error) {
	if set, ok := r.fromCache(ctx, id); ok {
		return set, nil
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if set, ok := r.fromCache(ctx, id); ok {
			return set, nil
		}

		set, err := r.loader.LoadQuestionSet(ctx, id)
		if err != nil {
			return domain.QuestionSet{}, err
		}
		if err := r.store(ctx, set); err != nil {
			log.Warn().Err(err).Str("set", id).Msg("question set not cached")
		}
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func (r *QuestionSetRepository) ListQuestionSets(ctx context.Context) ([]domain.QuestionSet, error) {
	return r.loader.ListQuestionSets(ctx)
}

func (r *QuestionSetRepository) fromCache(ctx context.Context, id string) (domain.QuestionSet, bool) {
	title, err := r.client.Get(ctx, titleKey(id)).Result()
	if err != nil {
		return domain.QuestionSet{}, false
	}
	raw, err := r.client.LRange(ctx, questionsKey(id), 0, -1).Result()
	if err != nil {
		return domain.QuestionSet{}, false
	}
	set := domain.QuestionSet{ID: id, Title: title, Questions: make([]domain.Question, 0, len(raw))}
	for _, item := range raw {
		var q domain.Question
		if err := json.Unmarshal([]byte(item), &q); err != nil {
			return domain.QuestionSet{}, false
		}
		set.Questions = append(set.Questions, q)
	}
	return set, true
}

func (r *QuestionSetRepository) store(ctx context.Context, set domain.QuestionSet) error {
	ttl := r.ttlWithJitter()
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, questionsKey(set.ID))
	for _, q := range set.Questions {
		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("encode question: %w", err)
		}
		pipe.RPush(ctx, questionsKey(set.ID), data)
	}
	// title last so readers never see a title without its questions
	pipe.Set(ctx, titleKey(set.ID), set.Title, ttl)
	if ttl > 0 {
		pipe.Expire(ctx, questionsKey(set.ID), ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func titleKey(id string) string {
	return "questionset:" + id + ":title"
}

func questionsKey(id string) string {
	return "questionset:" + id + ":questions"
}

func (r *QuestionSetRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
