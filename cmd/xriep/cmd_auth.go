package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xriepv1/client/internal/guard"
	"xriepv1/client/internal/screen"
)

func newLoginCmd(c *cli) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session",
		Long: `Log in with a username and password. Missing values are prompted for; the password is read
without echo when stdin is a terminal. Admins land on the dashboard, users on the home menu.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			login := screen.NewLogin(a.store, a.device, a.alerts, a.watcher)
			if login.Mount() {
				u := a.store.Snapshot().User
				fmt.Fprintf(cmd.OutOrStdout(), "Sudah login sebagai %s (%s)\n", u.Username, a.watcher.Route())
				return nil
			}

			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if username == "" {
				if username, err = prompt(cmd, in, "Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = readPassword(cmd, in); err != nil {
					return err
				}
			}

			if err := login.Submit(cmd.Context(), username, password); err != nil {
				return err
			}
			u := a.store.Snapshot().User
			fmt.Fprintf(cmd.OutOrStdout(), "Login sebagai %s (%s) -> %s\n", u.Username, u.Role, a.watcher.Route())
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when empty)")
	return cmd
}

func prompt(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassword reads without echo from a terminal and falls back to a plain line otherwise.
func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return prompt(cmd, in, "Password: ")
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			if a.store.Snapshot().User == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Belum login")
				return nil
			}
			a.store.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logout berhasil")
			return nil
		},
	}
}

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"me"},
		Short:   "Show the logged in account and its start screen",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			snap := a.store.Snapshot()
			route := a.watcher.Visit(cmd.Context(), guard.RouteIndex, snap)
			if snap.User == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Belum login (%s)\n", route)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), c.app.theme.renderAccount(snap.User, string(route)))
			return nil
		},
	}
}

// menuCommands maps each home menu entry to the command that opens it.
var menuCommands = map[guard.Route]string{
	guard.RouteRequestNomor:        "xriep request create <nomor>",
	guard.RouteTikTokDownloader:    "xriep download tiktok <url>",
	guard.RouteInstagramDownloader: "xriep download instagram <url>",
	guard.RouteRequestList:         "xriep request list",
}

func newHomeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show the user home menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			if err := a.enter(cmd.Context(), guard.RouteUserHome); err != nil {
				return err
			}
			u := screen.NewUserHome(a.store, a.watcher).Account()
			if u == nil {
				return &redirectError{route: guard.RouteUserHome, shown: guard.RouteLogin}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Halo, %s\n\n", u.Username)
			for _, item := range screen.Menu {
				fmt.Fprintf(out, "  %-22s %s\n", item.Title, a.theme.label.Render(menuCommands[item.Route]))
			}
			return nil
		},
	}
}
