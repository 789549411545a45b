package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"clientDirectory/internal/app"
	"clientDirectory/internal/auth"
	"clientDirectory/internal/config"
	"clientDirectory/models"
	"clientDirectory/repository"
)

func newAdminCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrators",
	}
	cmd.AddCommand(newAdminCreateCmd(rt), newAdminPromoteCmd(rt))
	return cmd
}

func newAdminCreateCmd(rt *runtime) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator, or promote the user if it exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withStore(func(cfg *config.Config, s *app.Store) error {
				err := app.BootstrapAdmin(cmd.Context(), s.Users, config.AdminConfig{
					Username: username, Email: email, Password: password,
				}, rt.env.Logger)
				if err != nil {
					return err
				}
				u, err := s.Users.GetByUsername(cmd.Context(), username)
				if err != nil {
					return err
				}
				out := rt.output(cmd)
				out.Success(fmt.Sprintf("Administrator ready: %s", u.Username))
				printUsers(out, []models.User{*u})
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAdminPromoteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "promote USERNAME",
		Short: "Grant ROLE_ADMIN to an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withStore(func(_ *config.Config, s *app.Store) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
				defer cancel()
				err := s.Users.UpdateRoleByUsername(ctx, args[0], models.RoleAdmin)
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("user %q not found", args[0])
				}
				if err != nil {
					return err
				}
				rt.output(cmd).Success(fmt.Sprintf("%s is now %s", args[0], models.RoleAdmin))
				return nil
			})
		},
	}
}

func newTokenCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage bearer tokens",
	}
	cmd.AddCommand(newTokenIssueCmd(rt))
	return cmd
}

func newTokenIssueCmd(rt *runtime) *cobra.Command {
	var username string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withStore(func(cfg *config.Config, s *app.Store) error {
				u, err := s.Users.GetByUsername(cmd.Context(), username)
				if err != nil {
					return err
				}
				if u == nil {
					return fmt.Errorf("user %q not found", username)
				}
				if ttl <= 0 {
					ttl = cfg.Auth.TokenTTL
				}
				tok, exp, err := auth.IssueToken(cfg.Auth.JWTSecret, ttl, u)
				if err != nil {
					return err
				}
				rt.output(cmd).Print(
					[]string{"TOKEN", "EXPIRES"},
					[][]string{{tok, exp.Format(time.RFC3339)}},
					map[string]any{"token": tok, "token_type": "Bearer", "expires_at": exp},
				)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Username (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_TTL)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newStatsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count stored users, companies and clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withStore(func(_ *config.Config, s *app.Store) error {
				ctx := cmd.Context()
				users, err := s.Users.Count(ctx)
				if err != nil {
					return err
				}
				companies, err := s.Companies.Count(ctx)
				if err != nil {
					return err
				}
				clients, err := s.Clients.Count(ctx)
				if err != nil {
					return err
				}
				rt.output(cmd).Print(
					[]string{"USERS", "COMPANIES", "CLIENTS"},
					[][]string{{strconv.FormatInt(users, 10), strconv.FormatInt(companies, 10), strconv.FormatInt(clients, 10)}},
					map[string]int64{"users": users, "companies": companies, "clients": clients},
				)
				return nil
			})
		},
	}
}

func printUsers(out *Output, users []models.User) {
	rows := make([][]string, len(users))
	for i, u := range users {
		rows[i] = []string{strconv.FormatInt(u.ID, 10), u.Username, u.Email, u.Role}
	}
	out.Print([]string{"ID", "USERNAME", "EMAIL", "ROLE"}, rows, users)
}
