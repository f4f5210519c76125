package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/oggyb/crushconnect/internal/db"
	"github.com/oggyb/crushconnect/internal/service/announce"
)

type opener func(ctx context.Context) (*announce.Scheduler, func(), error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "queuectl",
		Short: "Inspect and repair the match announcement queue",
		Long: `queuectl talks to the database directly and runs the same operations
as the operator HTTP API.

Examples:
  queuectl due
  queuectl stuck
  queuectl release 42
  queuectl force-post 42`,
		SilenceUsage: true,
	}

	// withScheduler opens the scheduler for one command run.
	withScheduler := func(run func(ctx context.Context, cmd *cobra.Command, s *announce.Scheduler, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s, closeFn, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()
			return run(ctx, cmd, s, args)
		}
	}

	list := func(use, short string, fetch func(*announce.Scheduler, context.Context) ([]db.QueueItem, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: withScheduler(func(ctx context.Context, cmd *cobra.Command, s *announce.Scheduler, _ []string) error {
				items, err := fetch(s, ctx)
				if err != nil {
					return err
				}
				printItems(cmd.OutOrStdout(), items)
				return nil
			}),
		}
	}

	byID := func(use, short, done string, op func(*announce.Scheduler, context.Context, uint64) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: withScheduler(func(ctx context.Context, cmd *cobra.Command, s *announce.Scheduler, args []string) error {
				id, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil || id == 0 {
					return fmt.Errorf("invalid queue id %q", args[0])
				}
				if err := op(s, ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "queue item %d %s\n", id, done)
				return nil
			}),
		}
	}

	tick := &cobra.Command{
		Use:   "tick",
		Short: "Run one scheduler pass now",
		Args:  cobra.NoArgs,
		RunE: withScheduler(func(ctx context.Context, cmd *cobra.Command, s *announce.Scheduler, _ []string) error {
			res := s.Tick(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: due=%d posted=%d failed=%d rescheduled=%d\n",
				res.RunID, res.Due, res.Posted, res.Failed, res.Rescheduled)
			return nil
		}),
	}

	root.AddCommand(
		list("due", "List items the next tick would consider", (*announce.Scheduler).GetDueItems),
		list("pending", "List every unsent item", (*announce.Scheduler).GetAllPending),
		list("stuck", "List items reserved for posting longer than "+announce.StuckAfter.String(), (*announce.Scheduler).GetStuckItems),
		byID("delete", "Delete an item permanently", "deleted", (*announce.Scheduler).DeleteItem),
		byID("force-post", "Publish an item now, ignoring its slot", "posted", (*announce.Scheduler).ForcePost),
		byID("release", "Clear a stale posting reservation", "released", (*announce.Scheduler).ReleaseItem),
		tick,
	)
	return root
}

func printItems(w io.Writer, items []db.QueueItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "no items")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMATCH\tTYPE\tVIBE\tNEXT POST\tSTATE\tERROR")
	for _, it := range items {
		special := "-"
		if it.SpecialType != nil {
			special = string(*it.SpecialType)
		}
		state := "pending"
		if it.PostingAt != nil {
			state = "posting since " + it.PostingAt.UTC().Format(time.RFC3339)
		}
		errMsg := ""
		if it.Error != nil {
			errMsg = *it.Error
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%.0f\t%s\t%s\t%s\n",
			it.ID, it.MatchID, special, it.VibeScore, it.NextPostTime.UTC().Format(time.RFC3339), state, errMsg)
	}
	_ = tw.Flush()
}
