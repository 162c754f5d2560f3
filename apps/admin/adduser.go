package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

type addUserOpts struct {
	name     string
	username string
	email    string
	admin    bool
}

func (cli *commandLine) addUserCmd() *cobra.Command {
	var opts addUserOpts
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user, or reactivate and update the one with the same username or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.username == "" && opts.email == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.readPassword("Enter password:")
			if err != nil {
				return err
			}
			if pwd == "" {
				_ = cmd.Usage()
				return errHelp
			}
			usr, created, err := cli.addUser(cmd.Context(), opts, pwd)
			if err != nil {
				return err
			}
			verb := "updated"
			if created {
				verb = "created"
			}
			cmd.Printf("user %s %s\n", usr.ID, verb)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "The user's full name (defaults to the username)")
	cmd.Flags().StringVar(&opts.username, "username", "", "The user's username")
	cmd.Flags().StringVar(&opts.email, "email", "", "The user's email")
	cmd.Flags().BoolVar(&opts.admin, "admin", false, "Grant every role")
	return cmd
}

// addUser updates or creates a user.User
func (cli *commandLine) addUser(ctx context.Context, opts addUserOpts, pwd string) (user.User, bool, error) {
	usrSvc := cli.svcs.User
	roles := []string{user.RoleMember}
	if opts.admin {
		roles = user.AllRoles
	}
	name := opts.name
	if name == "" {
		name = opts.username
	}

	var (
		usr user.User
		err error
	)
	for _, uname := range []string{opts.username, opts.email} {
		if uname == "" {
			continue
		}
		if usr, err = usrSvc.GetByUsernameOrEmail(ctx, uname); err == nil {
			break
		}
		if !core.IsNotFound(err) {
			return user.User{}, false, err
		}
	}

	if err != nil {
		nu := user.NewUser{
			Name:            name,
			Username:        opts.username,
			Email:           opts.email,
			Password:        pwd,
			PasswordConfirm: pwd,
			Roles:           roles,
		}
		if err = nu.Validate(ctx, cli.validate, usrSvc); err != nil {
			return user.User{}, false, err
		}
		usr, err = usrSvc.Create(ctx, nu)
		return usr, true, err
	}

	active := true
	uu := user.UpdateUser{
		Name:            opts.name,
		Username:        opts.username,
		Email:           opts.email,
		IsActive:        &active,
		Password:        pwd,
		PasswordConfirm: pwd,
	}
	if opts.admin {
		uu.Roles = roles
	}
	if err = uu.Validate(ctx, usr, cli.validate, usrSvc); err != nil {
		return user.User{}, false, err
	}
	usr, err = usrSvc.Update(ctx, usr, uu)
	return usr, false, err
}
