package quiz

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

type (
	Repository interface {
		core.Repository[Quiz, *QueryFilter]
	}

	AttemptRepository interface {
		core.Repository[Attempt, *AttemptFilter]
	}

	// UserUpdater applies quiz outcomes to users.
	UserUpdater interface {
		AddPoints(ctx context.Context, id string, points int) (user.User, error)
		SetPersonalityType(ctx context.Context, id, personalityType string) (user.User, error)
	}

	Service struct {
		repo     Repository
		attempts AttemptRepository
		users    UserUpdater
	}
)

func NewService(repo Repository, attempts AttemptRepository, users UserUpdater) *Service {
	return &Service{repo: repo, attempts: attempts, users: users}
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Quiz, error) {
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (Quiz, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetPublic(ctx context.Context, id string) (Quiz, error) {
	q, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	if !q.IsPublished {
		return Quiz{}, ErrNotFound
	}
	return q, nil
}

func (svc *Service) Save(ctx context.Context, f Form) (Quiz, bool, error) {
	return core.Save[Quiz, *Quiz, *QueryFilter](ctx, svc.repo, f.ID, func(q *Quiz) error {
		q.Title = f.Title
		q.Description = f.Description
		q.Kind = f.Kind
		q.Category = f.Category
		q.PassingScore = f.PassingScore
		q.Points = f.Points
		q.Questions = f.Questions
		q.IsPublished = f.IsPublished
		return nil
	})
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.Delete(ctx, ids...)
}

// Submit grades a member's answers and records the attempt. The first passing attempt of a knowledge quiz
// awards the quiz points; personality quizzes set the member's personality type.
func (svc *Service) Submit(ctx context.Context, usr user.User, quizID string, f SubmitForm) (Attempt, error) {
	q, err := svc.GetPublic(ctx, quizID)
	if err != nil {
		return Attempt{}, err
	}
	res, err := Grade(q, f.Answers)
	if err != nil {
		return Attempt{}, err
	}

	award := 0
	if q.Kind == KindKnowledge && res.Passed && q.Points > 0 {
		passed := true
		prev, err := svc.attempts.Query(ctx, &AttemptFilter{QuizID: q.ID, UserID: usr.ID, Passed: &passed, Limit: 1}, nil)
		if err != nil {
			return Attempt{}, errors.Wrap(err, "querying attempts")
		}
		if len(prev) == 0 {
			award = q.Points
		}
	}

	att := Attempt{
		QuizID:   q.ID,
		UserID:   usr.ID,
		Answers:  f.Answers,
		Score:    res.Score,
		MaxScore: res.MaxScore,
		Percent:  res.Percent,
		Passed:   res.Passed,
		Outcome:  res.Outcome,
	}
	att.Touch(core.NowFunc().UTC())
	if att, err = svc.attempts.Create(ctx, att); err != nil {
		return Attempt{}, errors.Wrap(err, "creating attempt")
	}

	if award > 0 {
		if _, err = svc.users.AddPoints(ctx, usr.ID, award); err != nil {
			return att, errors.Wrap(err, "awarding points")
		}
	}
	if res.Outcome != "" {
		if _, err = svc.users.SetPersonalityType(ctx, usr.ID, res.Outcome); err != nil {
			return att, errors.Wrap(err, "setting personality type")
		}
	}
	return att, nil
}

// AttemptService is the admin manager of quiz attempts: attempts are only created by Service.Submit.
type AttemptService struct {
	repo AttemptRepository
}

func NewAttemptService(repo AttemptRepository) *AttemptService {
	return &AttemptService{repo: repo}
}

func (svc *AttemptService) Query(ctx context.Context, filter *AttemptFilter, ordering []core.DBOrdering) ([]Attempt, error) {
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *AttemptService) Get(ctx context.Context, id string) (Attempt, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *AttemptService) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.Delete(ctx, ids...)
}
