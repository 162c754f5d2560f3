package user

import (
	"context"
	"net/mail"
	"sort"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("user")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")

	errInvalidResetLink = errors.New("the password reset link is invalid or has expired")

	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

type (
	Repository interface {
		core.Repository[User, *QueryFilter]
		// GetByUsernameOrEmail does a case-insensitive match on User.Username or User.Email.
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		// CheckUniqueness returns ErrUsernameExists or ErrEmailExists when another user (not in excludedIDs)
		// already uses username or email.
		CheckUniqueness(ctx context.Context, username, email string, excludedIDs ...string) error
		// AddPoints atomically increments the user's points.
		AddPoints(ctx context.Context, id string, points int) (User, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
		tokens  tokenGenerator
	}

	passwordResetData struct {
		Name     string
		ResetURL string
	}

	welcomeData struct {
		Name string
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
		tokens:  newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
	}
}

func (svc *Service) CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error {
	exclIDs := make([]string, 0, len(exclUsers))
	for _, usr := range exclUsers {
		exclIDs = append(exclIDs, usr.ID)
	}
	if err := svc.repo.CheckUniqueness(ctx, uname, email, exclIDs...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return errors.Wrap(err, "checking uniqueness")
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := core.NowFunc().UTC()
	roles := nu.Roles
	if len(roles) == 0 {
		roles = []string{RoleMember}
	}
	usr := User{
		Model:     core.Model{ID: core.NewID(), CreatedAt: now, UpdatedAt: now},
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  true,
		Roles:     roles,
		Interests: []string{},
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.Create(ctx, usr)
}

// Signup creates a member account and sends the welcome email.
func (svc *Service) Signup(ctx context.Context, nu NewUser) (User, error) {
	nu.Roles = []string{RoleMember}
	usr, err := svc.Create(ctx, nu)
	if err != nil {
		return User{}, err
	}
	if usr.Email != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      "Welcome!",
			TemplateName: "welcome",
			TemplateData: welcomeData{Name: usr.Name},
		})
	}
	return usr, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (User, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	usr, err := svc.repo.GetByUsernameOrEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if usr.Email != email {
		return User{}, ErrNotFound
	}
	return usr, nil
}

func (svc *Service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	usr.Name = uu.Name
	usr.Username = uu.Username
	usr.Email = uu.Email
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Roles != nil {
		usr.Roles = uu.Roles
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	usr.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.Update(ctx, usr)
}

func (svc *Service) UpdateProfile(ctx context.Context, usr User, up UpdateProfile) (User, error) {
	usr.Name = up.Name
	usr.Headline = up.Headline
	usr.Bio = up.Bio
	usr.Interests = up.Interests
	usr.PersonalityType = up.PersonalityType
	usr.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.Update(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = null.TimeFrom(core.NowFunc().UTC())
	return svc.repo.Update(ctx, usr)
}

func (svc *Service) SetPersonalityType(ctx context.Context, id, personalityType string) (User, error) {
	usr, err := svc.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.PersonalityType = core.CleanString(personalityType, true /* lower */)
	usr.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.Update(ctx, usr)
}

func (svc *Service) SetAvatar(ctx context.Context, id, avatarURL string) (User, error) {
	usr, err := svc.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.AvatarURL = avatarURL
	usr.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.Update(ctx, usr)
}

// AddPoints awards (or removes, when negative) gamification points.
func (svc *Service) AddPoints(ctx context.Context, id string, points int) (User, error) {
	if points == 0 {
		return svc.repo.Get(ctx, id)
	}
	return svc.repo.AddPoints(ctx, id, points)
}

// Leaderboard ranks active users by points. Users with the same points share a rank.
func (svc *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	} else if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	active := true
	users, err := svc.repo.Query(
		ctx,
		&QueryFilter{IsActive: &active, Limit: limit},
		[]core.DBOrdering{{Field: "points"}, {Field: "created_at", Ascending: true}},
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].Points > users[j].Points })
	if len(users) > limit {
		users = users[:limit]
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, usr := range users {
		rank := i + 1
		if i > 0 && usr.Points == users[i-1].Points {
			rank = entries[i-1].Rank
		}
		entries = append(entries, LeaderboardEntry{
			Rank:      rank,
			UserID:    usr.ID,
			Name:      usr.Name,
			Username:  usr.Username,
			AvatarURL: usr.AvatarURL,
			Points:    usr.Points,
		})
	}
	return entries, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.Delete(ctx, ids...)
}

// RequestPasswordReset emails a password reset link to the active user owning email.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}

	token, err := svc.tokens.makeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: passwordResetData{
			Name:     usr.Name,
			ResetURL: svc.conf.FrontendBaseURL + "/password-reset/" + EncodeUID(usr) + "/" + token,
		},
	})
	return nil
}

func (svc *Service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	id, err := decodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(errInvalidResetLink)
	}
	usr, err := svc.repo.Get(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(errInvalidResetLink)
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err = svc.tokens.verifyToken(usr, data.Token); err != nil {
		if err == errInvalidToken || err == errTokenExpired {
			return core.NewValidationError(errInvalidResetLink)
		}
		return errors.Wrap(err, "verifying token")
	}

	if err = usr.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = core.NowFunc().UTC()
	_, err = svc.repo.Update(ctx, usr)
	return errors.Wrap(err, "updating user")
}
