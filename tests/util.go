// Package testutil holds helpers shared by the test suites.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
	"github.com/trezcool/elimu/services/logger"
)

// NewLogger returns a silent logger.
func NewLogger() core.Logger {
	l := logsvc.NewRollbarLogger(zap.NewNop(), core.NewTestConfig())
	l.Enable(false)
	return l
}

// NewConfig returns the test config with the email templates parsed.
func NewConfig() *core.Config {
	conf := core.NewTestConfig()
	if err := core.ParseEmailTemplates(conf, NewLogger()); err != nil {
		panic(err)
	}
	return conf
}

// NewValidator returns a validator with every custom tag and its english translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	english := en.New()
	translator, _ := ut.New(english, english).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Model:     core.Model{ID: core.NewID(), CreatedAt: tstamp, UpdatedAt: tstamp},
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		Interests: []string{},
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.Create(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// CreateMember creates an active member named after uname.
func CreateMember(t *testing.T, repo user.Repository, uname string) user.User {
	return CreateUser(t, repo, uname, uname, uname+"@test.com", "", []string{user.RoleMember}, true)
}

// CreateAdmin creates an active admin named after uname.
func CreateAdmin(t *testing.T, repo user.Repository, uname string) user.User {
	return CreateUser(t, repo, uname, uname, uname+"@test.com", "", []string{user.RoleAdmin}, true)
}
