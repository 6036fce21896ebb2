package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xriepv1/client/internal/guard"
	"xriepv1/client/internal/screen"
)

func newRequestCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "File and track WhatsApp number requests",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <nomor>",
			Short: "Ask an admin to process a WhatsApp number",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := c.app
				if err := a.enter(cmd.Context(), guard.RouteRequestNomor); err != nil {
					return err
				}
				resp, err := screen.NewRequestNomor(a.store, a.client, a.alerts).Submit(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ID: %s\n", resp.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List your requests, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a := c.app
				if err := a.enter(cmd.Context(), guard.RouteRequestList); err != nil {
					return err
				}
				reqs, err := screen.NewRequestList(a.store, a.client, a.logger).Load(cmd.Context())
				if err != nil {
					return err
				}
				if len(reqs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Belum ada request")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.app.theme.renderRequests(reqs, false))
				return nil
			},
		},
	)
	return cmd
}

func newDownloadCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Resolve TikTok and Instagram links",
	}
	cmd.AddCommand(
		downloadCmd(c, "tiktok <url>", "Resolve a TikTok video link", screen.PlatformTikTok, guard.RouteTikTokDownloader),
		downloadCmd(c, "instagram <url>", "Resolve an Instagram post or reel link", screen.PlatformInstagram, guard.RouteInstagramDownloader),
	)
	return cmd
}

func downloadCmd(c *cli, use, short string, platform screen.Platform, route guard.Route) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			if err := a.enter(cmd.Context(), route); err != nil {
				return err
			}
			res, err := screen.NewDownloader(platform, a.store, a.client, a.alerts).Submit(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Message)
			if link := res.VideoURL + res.MediaURL; link != "" {
				fmt.Fprintln(out, link)
			}
			return nil
		},
	}
}
