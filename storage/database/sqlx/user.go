package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

type userRepository struct {
	*table[user.User, *user.QueryFilter]
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{table: newTable[user.User](db, "users", user.ErrNotFound, userWhere)}
}

func userWhere(filter *user.QueryFilter) sq.And {
	if filter == nil {
		return nil
	}
	var roles sq.Sqlizer
	if len(filter.Roles) > 0 {
		// users with any role that starts with any of the provided roles
		or := make(sq.Or, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			or = append(or, sq.Expr("EXISTS (SELECT 1 FROM unnest(roles) r WHERE r LIKE ?)", role+"%"))
		}
		roles = or
	}
	return and(
		search(filter.Search, "name", "username", "email"),
		roles,
		isTrue("is_active", filter.IsActive),
	)
}

func (repo *userRepository) GetByUsernameOrEmail(ctx context.Context, uname string) (user.User, error) {
	if uname == "" {
		return user.User{}, user.ErrNotFound
	}
	query := psql.Select("*").From(repo.name).
		Where(sq.Or{eq("username", uname), eq("email", uname)}).
		Limit(1)
	return repo.get(ctx, query, "getting user from")
}

func (repo *userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedIDs ...string) error {
	exclude := func(query sq.SelectBuilder) sq.SelectBuilder {
		var ids []string
		for _, id := range excludedIDs {
			if isUUID(id) {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			query = query.Where(sq.NotEq{"id": ids})
		}
		return query
	}
	check := func(col, val string, exists error) error {
		if val == "" {
			return nil
		}
		q, args, err := exclude(psql.Select("COUNT(*)").From(repo.name).Where(eq(col, val))).ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		var count int
		if err = sqlx.GetContext(ctx, repo.db, &count, q, args...); err != nil {
			return errors.Wrap(err, "checking user uniqueness")
		}
		if count > 0 {
			return exists
		}
		return nil
	}

	if err := check("username", username, user.ErrUsernameExists); err != nil {
		return err
	}
	return check("email", email, user.ErrEmailExists)
}

func (repo *userRepository) AddPoints(ctx context.Context, id string, points int) (user.User, error) {
	if !isUUID(id) {
		return user.User{}, user.ErrNotFound
	}
	query := psql.Update(repo.name).
		Set("points", sq.Expr("points + ?", points)).
		Set("updated_at", core.NowFunc().UTC()).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING *")
	return repo.get(ctx, query, "adding points in")
}
