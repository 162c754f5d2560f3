package sqlxrepos

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

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

func NewChallengeRepository(db *sqlx.DB) challenge.Repository {
	return &challengeRepository{
		table: newTable[challenge.Challenge](db, "challenges", challenge.ErrNotFound, challengeWhere),
	}
}

func NewSubmissionRepository(db *sqlx.DB) challenge.SubmissionRepository {
	return &submissionRepository{
		table: newTable[challenge.Submission](db, "challenge_submissions", challenge.ErrSubmissionNotFound, submissionWhere),
	}
}

func NewQuizRepository(db *sqlx.DB) quiz.Repository {
	return &quizRepository{table: newTable[quiz.Quiz](db, "quizzes", quiz.ErrNotFound, quizWhere)}
}

func NewAttemptRepository(db *sqlx.DB) quiz.AttemptRepository {
	return &attemptRepository{table: newTable[quiz.Attempt](db, "quiz_attempts", quiz.ErrAttemptNotFound, attemptWhere)}
}

func challengeWhere(filter *challenge.QueryFilter) sq.And {
	if filter == nil {
		return nil
	}
	return and(
		search(filter.Search, "title", "description"),
		eq("difficulty", filter.Difficulty),
		hasTag("tags", filter.Tag),
		isTrue("is_active", filter.IsActive),
	)
}

func submissionWhere(filter *challenge.SubmissionFilter) sq.And {
	if filter == nil {
		return nil
	}
	return and(
		eqID("challenge_id", filter.ChallengeID),
		eqID("user_id", filter.UserID),
		eq("status", filter.Status),
	)
}

func quizWhere(filter *quiz.QueryFilter) sq.And {
	if filter == nil {
		return nil
	}
	return and(
		search(filter.Search, "title", "description"),
		eq("kind", filter.Kind),
		eq("category", filter.Category),
		isTrue("is_published", filter.IsPublished),
	)
}

func attemptWhere(filter *quiz.AttemptFilter) sq.And {
	if filter == nil {
		return nil
	}
	return and(
		eqID("quiz_id", filter.QuizID),
		eqID("user_id", filter.UserID),
		isTrue("passed", filter.Passed),
	)
}
