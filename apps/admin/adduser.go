package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var (
		name, uname, email string
		owner              bool
	)
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create or reactivate an administrator",
		Long: "Create an administrator account. If the username or email is taken, the account is " +
			"reactivated with the new password instead. The password is prompted next.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if uname == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			roles := []string{user.RoleAdmin}
			if owner {
				roles = user.AllRoles
			}
			usr, err := cli.addUser(cmd.Context(), name, uname, email, pwd, roles)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %q is ready\n", usr.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&uname, "username", "u", "", "username of the account")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address of the account")
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name (defaults to the username)")
	cmd.Flags().BoolVar(&owner, "owner", false, "grant every role")
	return cmd
}

// addUser updates or creates a user.User
func (cli *commandLine) addUser(ctx context.Context, name, uname, email, pwd string, roles []string) (user.User, error) {
	if core.CleanString(name) == "" {
		name = uname
	}

	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if errors.Is(err, user.ErrNotFound) && email != "" {
		usr, err = cli.usrSvc.GetByUsernameOrEmail(ctx, email)
	}
	switch {
	case errors.Is(err, user.ErrNotFound):
		nu := user.NewUser{
			Name:            name,
			Username:        uname,
			Email:           email,
			Password:        pwd,
			PasswordConfirm: pwd,
			Roles:           roles,
		}
		if err = nu.Validate(cli.validate, cli.usrSvc); err != nil {
			return user.User{}, err
		}
		return cli.usrSvc.Create(ctx, nu)
	case err != nil:
		return user.User{}, err
	}

	active := true
	uu := user.UpdateUser{
		Email:           email,
		IsActive:        &active,
		Roles:           roles,
		Password:        pwd,
		PasswordConfirm: pwd,
	}
	if err = uu.Validate(usr, cli.validate, cli.usrSvc); err != nil {
		return user.User{}, err
	}
	return cli.usrSvc.Update(ctx, usr, uu)
}
