package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"xriepv1/client/internal/forms"
	"xriepv1/client/internal/guard"
	requestdomain "xriepv1/client/internal/request/domain"
	"xriepv1/client/internal/screen"
)

// dashboard opens the admin dashboard, failing for anyone but an admin.
func (a *app) dashboard(ctx context.Context) (*screen.AdminDashboard, error) {
	if err := a.enter(ctx, guard.RouteAdminDashboard); err != nil {
		return nil, err
	}
	return screen.NewAdminDashboard(a.store, a.client, a.alerts, a.watcher, a.cfg.AdminRefresh(), a.logger), nil
}

func newUsersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts (admin)",
	}
	cmd.AddCommand(newUsersListCmd(c), newUsersCreateCmd(c), newUsersDeleteCmd(c), newUsersWatchCmd(c))
	return cmd
}

func newUsersListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, err := c.app.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			if err := dash.FetchUsers(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.app.theme.renderUsers(dash.Users()))
			return nil
		},
	}
}

func newUsersCreateCmd(c *cli) *cobra.Command {
	var form forms.NewUser
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Long: `Create a regular user account. --masa-aktif is the active period in days (default 30) and
--max-devices the number of devices that may be logged in at once (default 3).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, err := c.app.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			if err := dash.CreateUser(cmd.Context(), form); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.app.theme.renderUsers(dash.Users()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&form.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "Password")
	cmd.Flags().StringVar(&form.MasaAktif, "masa-aktif", "", "Active period in days")
	cmd.Flags().StringVar(&form.MaxDevices, "max-devices", "", "Maximum concurrent devices")
	return cmd
}

func newUsersDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dash, err := c.app.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			return dash.DeleteUser(cmd.Context(), args[0])
		},
	}
}

func newUsersWatchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the user list on screen, refreshing it until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := c.app
			dash, err := a.dashboard(ctx)
			if err != nil {
				return err
			}
			if !dash.Mount(ctx) {
				return &redirectError{route: guard.RouteAdminDashboard, shown: a.watcher.Route(), loggedIn: a.store.Snapshot().User != nil}
			}
			stop := dash.AutoRefresh(ctx)
			defer stop()

			out := cmd.OutOrStdout()
			render := func() {
				fmt.Fprintf(out, "%s\n%s\n", a.theme.label.Render(time.Now().Format("15:04:05")), c.app.theme.renderUsers(dash.Users()))
			}
			render()
			ticker := time.NewTicker(a.cfg.AdminRefresh())
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if a.store.Snapshot().User == nil {
						return &redirectError{route: guard.RouteAdminDashboard, shown: guard.RouteLogin}
					}
					render()
				}
			}
		},
	}
}

func newRequestsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Work the request queue (admin)",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every user's requests, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				dash, err := c.app.dashboard(cmd.Context())
				if err != nil {
					return err
				}
				if err := dash.FetchRequests(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.app.theme.renderRequests(dash.Requests(), true))
				return nil
			},
		},
		&cobra.Command{
			Use:   "status <id> <status>",
			Short: "Set a request's status (PENDING, PROSES, SELESAI or GAGAL)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				dash, err := c.app.dashboard(cmd.Context())
				if err != nil {
					return err
				}
				status := requestdomain.Status(strings.ToUpper(strings.TrimSpace(args[1])))
				if err := dash.UpdateStatus(cmd.Context(), args[0], status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Request %s -> %s\n", args[0], status)
				return nil
			},
		},
	)
	return cmd
}
