package challenge

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

type (
	Repository interface {
		core.Repository[Challenge, *QueryFilter]
	}

	SubmissionRepository interface {
		core.Repository[Submission, *SubmissionFilter]
	}

	// PointsAwarder credits gamification points to users.
	PointsAwarder interface {
		AddPoints(ctx context.Context, id string, points int) (user.User, error)
	}

	Service struct {
		repo Repository
	}

	SubmissionService struct {
		repo      SubmissionRepository
		challenge *Service
		awarder   PointsAwarder
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Challenge, error) {
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (Challenge, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetPublic(ctx context.Context, id string) (Challenge, error) {
	chl, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Challenge{}, err
	}
	if !chl.IsActive {
		return Challenge{}, ErrNotFound
	}
	return chl, nil
}

func (svc *Service) Save(ctx context.Context, f Form) (Challenge, bool, error) {
	return core.Save[Challenge, *Challenge, *QueryFilter](ctx, svc.repo, f.ID, func(chl *Challenge) error {
		chl.Title = f.Title
		chl.Description = f.Description
		chl.Difficulty = f.Difficulty
		chl.Points = f.Points
		chl.Tags = f.Tags
		chl.StartsAt = f.StartsAt
		chl.EndsAt = f.EndsAt
		chl.IsActive = f.IsActive
		return nil
	})
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.Delete(ctx, ids...)
}

func NewSubmissionService(repo SubmissionRepository, challengeSvc *Service, awarder PointsAwarder) *SubmissionService {
	return &SubmissionService{repo: repo, challenge: challengeSvc, awarder: awarder}
}

func (svc *SubmissionService) Query(ctx context.Context, filter *SubmissionFilter, ordering []core.DBOrdering) ([]Submission, error) {
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *SubmissionService) Get(ctx context.Context, id string) (Submission, error) {
	return svc.repo.Get(ctx, id)
}

// Submit records a member's solution to an open challenge.
func (svc *SubmissionService) Submit(ctx context.Context, usr user.User, challengeID string, f SubmitForm) (Submission, error) {
	chl, err := svc.challenge.GetPublic(ctx, challengeID)
	if err != nil {
		return Submission{}, err
	}
	if !chl.IsOpen(core.NowFunc()) {
		return Submission{}, core.NewValidationError(errNotOpen)
	}

	sub := Submission{
		ChallengeID: chl.ID,
		UserID:      usr.ID,
		Content:     f.Content,
		Status:      StatusSubmitted,
	}
	sub.Touch(core.NowFunc().UTC())
	return svc.repo.Create(ctx, sub)
}

// Save is used by admins. Approving a submission credits the challenge points to its author,
// once per user and challenge.
func (svc *SubmissionService) Save(ctx context.Context, f SubmissionForm) (Submission, bool, error) {
	var award int
	sub, created, err := core.Save[Submission, *Submission, *SubmissionFilter](ctx, svc.repo, f.ID, func(sub *Submission) error {
		chl, err := svc.challenge.Get(ctx, f.ChallengeID)
		if err != nil {
			if core.IsNotFound(err) {
				return core.NewValidationError(err, core.FieldError{Field: "challenge_id", Error: err.Error()})
			}
			return errors.Wrap(err, "finding challenge")
		}

		if f.Status == StatusApproved && sub.PointsAwarded == 0 && chl.Points > 0 {
			awarded, err := svc.alreadyAwarded(ctx, f.UserID, chl.ID, sub.ID)
			if err != nil {
				return err
			}
			if !awarded {
				award = chl.Points
			}
		}

		sub.ChallengeID = chl.ID
		sub.UserID = f.UserID
		sub.Content = f.Content
		sub.Status = f.Status
		sub.PointsAwarded += award
		return nil
	})
	if err != nil {
		return sub, created, err
	}

	if award > 0 {
		if _, err = svc.awarder.AddPoints(ctx, sub.UserID, award); err != nil {
			return sub, created, errors.Wrap(err, "awarding points")
		}
	}
	return sub, created, nil
}

// alreadyAwarded reports whether another submission of the user earned the challenge points.
func (svc *SubmissionService) alreadyAwarded(ctx context.Context, userID, challengeID, excludedID string) (bool, error) {
	subs, err := svc.repo.Query(ctx, &SubmissionFilter{ChallengeID: challengeID, UserID: userID}, nil)
	if err != nil {
		return false, errors.Wrap(err, "querying submissions")
	}
	for _, sub := range subs {
		if sub.ID != excludedID && sub.PointsAwarded > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (svc *SubmissionService) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.Delete(ctx, ids...)
}
