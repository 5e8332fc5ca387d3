package services

import (
	"math/rand"
	"time"

	"project/backend/models"
)

// fallbackQuestionCount is used when a configuration carries no question
// count of its own.
const fallbackQuestionCount = 25

// minAnswerableQuestions: a session needs at least this many questions with
// two or more options to be worth starting.
const minAnswerableQuestions = 2

// QuestionSelector assembles the question sequence for an MCQ session from
// the configured selection rules, backfilling from the active pool when the
// rules come up short.
type QuestionSelector struct {
	Store *QuestionStore
}

func NewQuestionSelector(store *QuestionStore) *QuestionSelector {
	return &QuestionSelector{Store: store}
}

// SelectForConfig runs the rule-weighted assembly: fetch each rule's slice,
// de-duplicate by question ID, backfill up to the configured total and
// shuffle. With no rules it falls back to the first N active questions.
func (s *QuestionSelector) SelectForConfig(config *models.TestConfiguration) ([]models.Question, error) {
	total := config.TotalQuestions
	if total <= 0 {
		total = fallbackQuestionCount
	}

	var selected []models.Question
	seen := map[uint]bool{}

	for _, rule := range config.Rules {
		slice, err := s.Store.FetchByCategoryAndDifficulty(rule.CategoryID, rule.Difficulty, rule.QuestionCount)
		if err != nil {
			return nil, err
		}
		for _, q := range slice {
			if seen[q.ID] {
				continue
			}
			seen[q.ID] = true
			selected = append(selected, q)
		}
	}

	if len(selected) < total {
		pool, err := s.Store.FetchActive(total + len(selected))
		if err != nil {
			return nil, err
		}
		for _, q := range pool {
			if len(selected) >= total {
				break
			}
			if seen[q.ID] {
				continue
			}
			seen[q.ID] = true
			selected = append(selected, q)
		}
	}
	if len(selected) > total {
		selected = selected[:total]
	}

	if len(selected) == 0 {
		return nil, ErrNoQuestions
	}
	answerable := 0
	for _, q := range selected {
		if len(q.Options) >= 2 {
			answerable++
		}
	}
	if answerable < minAnswerableQuestions {
		return nil, ErrNotEnoughOptions
	}

	shuffleQuestions(selected)
	return selected, nil
}

// shuffleQuestions shuffles the question order and, independently, each
// question's option order. The PRNG is seeded per call so repeated sessions
// over the same pool differ.
func shuffleQuestions(questions []models.Question) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	rng.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	for i := range questions {
		opts := questions[i].Options
		rng.Shuffle(len(opts), func(a, b int) {
			opts[a], opts[b] = opts[b], opts[a]
		})
	}
}
