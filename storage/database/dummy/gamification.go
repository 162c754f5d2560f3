package dummydb

import (
	"github.com/trezcool/elimu/core/challenge"
	"github.com/trezcool/elimu/core/quiz"
)

type (
	challengeRepository struct {
		*table[challenge.Challenge, *challenge.QueryFilter]
	}
	submissionRepository struct {
		*table[challenge.Submission, *challenge.SubmissionFilter]
	}
	quizRepository struct {
		*table[quiz.Quiz, *quiz.QueryFilter]
	}
	attemptRepository struct {
		*table[quiz.Attempt, *quiz.AttemptFilter]
	}
)

// interface compliance checks
var (
	_ challenge.Repository           = (*challengeRepository)(nil)
	_ challenge.SubmissionRepository = (*submissionRepository)(nil)
	_ quiz.Repository                = (*quizRepository)(nil)
	_ quiz.AttemptRepository         = (*attemptRepository)(nil)
)

func NewChallengeRepository(db *DB) challenge.Repository {
	return &challengeRepository{table: db.challenge}
}

func NewSubmissionRepository(db *DB) challenge.SubmissionRepository {
	return &submissionRepository{table: db.submission}
}

func NewQuizRepository(db *DB) quiz.Repository {
	return &quizRepository{table: db.quiz}
}

func NewAttemptRepository(db *DB) quiz.AttemptRepository {
	return &attemptRepository{table: db.attempt}
}

func matchChallenge(chl challenge.Challenge, filter *challenge.QueryFilter) bool {
	if filter == nil {
		return true
	}
	return searchMatch(filter.Search, chl.Title, chl.Description) &&
		eqMatch(filter.Difficulty, chl.Difficulty) &&
		tagMatch(filter.Tag, chl.Tags) &&
		boolMatch(filter.IsActive, chl.IsActive)
}

func matchSubmission(sub challenge.Submission, filter *challenge.SubmissionFilter) bool {
	if filter == nil {
		return true
	}
	return eqMatch(filter.ChallengeID, sub.ChallengeID) &&
		eqMatch(filter.UserID, sub.UserID) &&
		eqMatch(filter.Status, sub.Status)
}

func matchQuiz(q quiz.Quiz, filter *quiz.QueryFilter) bool {
	if filter == nil {
		return true
	}
	return searchMatch(filter.Search, q.Title, q.Description) &&
		eqMatch(filter.Kind, q.Kind) &&
		eqMatch(filter.Category, q.Category) &&
		boolMatch(filter.IsPublished, q.IsPublished)
}

func matchAttempt(att quiz.Attempt, filter *quiz.AttemptFilter) bool {
	if filter == nil {
		return true
	}
	return eqMatch(filter.QuizID, att.QuizID) &&
		eqMatch(filter.UserID, att.UserID) &&
		boolMatch(filter.Passed, att.Passed)
}
