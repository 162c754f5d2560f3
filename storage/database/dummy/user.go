package dummydb

import (
	"context"
	"strings"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

type userRepository struct {
	*table[user.User, *user.QueryFilter]
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{table: db.user}
}

func matchUser(usr user.User, filter *user.QueryFilter) bool {
	if filter == nil {
		return true
	}
	// users with any role that starts with any of the provided roles
	if len(filter.Roles) > 0 {
		hasRole := false
		for _, role := range filter.Roles {
			if usr.RoleStartsWith(role) {
				hasRole = true
				break
			}
		}
		if !hasRole {
			return false
		}
	}
	return searchMatch(filter.Search, usr.Name, usr.Username, usr.Email) &&
		boolMatch(filter.IsActive, usr.IsActive)
}

func (repo *userRepository) GetByUsernameOrEmail(_ context.Context, uname string) (user.User, error) {
	usr, ok := repo.find(func(usr user.User) bool {
		return strings.EqualFold(usr.Username, uname) || strings.EqualFold(usr.Email, uname)
	})
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) CheckUniqueness(_ context.Context, username, email string, excludedIDs ...string) error {
	excluded := func(usr user.User) bool {
		for _, id := range excludedIDs {
			if usr.ID == id {
				return true
			}
		}
		return false
	}
	if username != "" {
		if _, ok := repo.find(func(usr user.User) bool {
			return strings.EqualFold(usr.Username, username) && !excluded(usr)
		}); ok {
			return user.ErrUsernameExists
		}
	}
	if email != "" {
		if _, ok := repo.find(func(usr user.User) bool {
			return strings.EqualFold(usr.Email, email) && !excluded(usr)
		}); ok {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) AddPoints(_ context.Context, id string, points int) (user.User, error) {
	return repo.update(id, func(usr *user.User) {
		usr.Points += points
		usr.UpdatedAt = core.NowFunc().UTC()
	})
}
