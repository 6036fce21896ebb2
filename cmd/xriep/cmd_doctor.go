package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"xriepv1/client/internal/health"
)

func newDoctorCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check session storage, the route policy and the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			var storagePinger health.Pinger
			if p, ok := a.storage.(health.Pinger); ok {
				storagePinger = p
			}
			report := health.NewChecker(storagePinger, a.guard, a.client, a.cfg.Timeout()).Check(cmd.Context())

			out := cmd.OutOrStdout()
			for _, r := range report.Results {
				switch {
				case r.Skipped:
					fmt.Fprintf(out, "%-8s %s\n", r.Name, a.theme.label.Render("skipped"))
				case r.Err != nil:
					fmt.Fprintf(out, "%-8s %s %v\n", r.Name, a.theme.failure.Render("FAIL"), r.Err)
				default:
					fmt.Fprintf(out, "%-8s %s %s\n", r.Name, a.theme.success.Render("ok"), a.theme.label.Render(r.Elapsed.Round(time.Microsecond).String()))
				}
			}
			if report.Status != health.StatusServing {
				return errors.New(string(report.Status))
			}
			return nil
		},
	}
}
