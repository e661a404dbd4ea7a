package service

import "github.com/classmark/cbt-backend/internal/model"

// Grade scores submitted answers against the authoritative key.
//
// The key defines the universe: total is always the key's size. A question
// missing from the submission counts as wrong; a submitted id absent from
// the key is ignored and cannot inflate the score. An empty key is a
// misconfigured exam and fails with ErrNoAnswerKey — a server fault, not a
// user error.
func Grade(submitted model.AnswerSet, key map[int]model.Letter) (score, total int, err error) {
	if len(key) == 0 {
		return 0, 0, ErrNoAnswerKey
	}

	for id, correct := range key {
		if submitted[id] == correct {
			score++
		}
	}
	return score, len(key), nil
}
