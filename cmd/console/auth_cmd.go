package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/validation"
)

func (c *cli) askIfEmpty(value *string, question string) error {
	if *value != "" {
		return nil
	}
	answer, err := c.prompt(question)
	if err != nil {
		return err
	}
	*value = answer
	return nil
}

func newLoginCmd(c *cli) *cobra.Command {
	var form validation.LoginForm

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.askIfEmpty(&form.Email, "Email: "); err != nil {
				return err
			}
			if err := c.askIfEmpty(&form.Password, "Password: "); err != nil {
				return err
			}

			user, err := c.app.Session.Login(cmd.Context(), form)
			if err != nil {
				return failed("logging in", err)
			}
			if c.jsonOut {
				return c.writeJSON(user)
			}
			fmt.Fprintf(c.out, "Logged in as %s (%s)\n", user.DisplayName(), user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func newSignupCmd(c *cli) *cobra.Command {
	var (
		form validation.SignupForm
		role string
	)

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.askIfEmpty(&form.Email, "Email: "); err != nil {
				return err
			}
			if err := c.askIfEmpty(&form.Password, "Password: "); err != nil {
				return err
			}
			form.Role = entity.Role(role)

			user, err := c.app.Session.Signup(cmd.Context(), form)
			if err != nil {
				return failed("creating the account", err)
			}
			if c.jsonOut {
				return c.writeJSON(user)
			}
			fmt.Fprintf(c.out, "Account created. Logged in as %s (%s)\n", user.DisplayName(), user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password, at least 6 characters (prompted when omitted)")
	cmd.Flags().StringVar(&form.FullName, "name", "", "Full name")
	cmd.Flags().StringVar(&role, "role", string(entity.RoleEmployee), "admin or employee")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Session.Logout(cmd.Context()); err != nil {
				return failed("logging out", err)
			}
			fmt.Fprintln(c.out, "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.app.RequireSession(cmd.Context())
			if err != nil {
				return failed("checking the session", err)
			}
			return c.printUser(user)
		},
	}
}
