package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleveque/motqot/internal/scheduler"
	"github.com/fleveque/motqot/internal/service"
)

func quoteCmd() *cobra.Command {
	var (
		lang  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Print today's quote, generating it if it is due",
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			if !force {
				due, err := a.svc.IsDue(ctx)
				if err != nil {
					return err
				}
				q, err := a.svc.LastQuote(ctx)
				if err != nil {
					return err
				}
				if q != nil && !due {
					fmt.Fprintln(cmd.OutOrStdout(), q.Text)
					return nil
				}
			}

			release, err := a.guard.TryAcquire()
			if err != nil {
				return errors.New(service.Describe(err))
			}
			defer release()

			q, err := a.svc.Generate(ctx, lang)
			if err != nil {
				return fmt.Errorf("%s (%w)", service.Describe(err), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), q.Text)
			return nil
		}),
	}

	cmd.Flags().StringVar(&lang, "lang", "", "Language code for this quote (en, de, fr, es); defaults to the stored preference")
	cmd.Flags().BoolVar(&force, "force", false, "Generate a new quote even if today's already exists")
	return cmd
}

func dueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "Report whether today's quote still has to be generated",
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			due, err := a.svc.IsDue(ctx)
			if err != nil {
				return err
			}
			last, ok, err := a.prefs.LastQuoteDate(ctx)
			if err != nil {
				return err
			}
			if !ok {
				last = "never"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "due: %t (last quote: %s, today: %s)\n", due, last, a.svc.Today())
			return nil
		}),
	}
}

func nextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show when the next daily notification fires",
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			enabled, err := a.prefs.NotificationsEnabled(ctx)
			if err != nil {
				return err
			}
			if !enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "notifications are disabled")
				return nil
			}
			hour, minute, err := a.prefs.NotificationTime(ctx)
			if err != nil {
				return err
			}
			next := scheduler.NextRun(time.Now(), hour, minute)
			fmt.Fprintf(cmd.OutOrStdout(), "next notification: %s\n", next.Format("2006-01-02 15:04"))
			return nil
		}),
	}
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent provider calls",
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			if limit < 1 {
				return fmt.Errorf("limit must be at least 1, got %d", limit)
			}
			rows, err := a.generations.ListRecent(ctx, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tPROVIDER\tMODEL\tLANG\tRESULT\tDURATION")
			for _, g := range rows {
				result := "ok"
				if !g.Success {
					result = "failed"
					if g.StatusCode != nil {
						result = fmt.Sprintf("http %d", *g.StatusCode)
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%dms\n",
					g.CreatedAt.Local().Format("2006-01-02 15:04"),
					g.Provider, g.Model, g.Language, result, g.DurationMs)
			}
			return w.Flush()
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of calls to show")
	return cmd
}
