package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/bookkeep/internal/reversal"
)

// NewReverseCommand creates the reverse command.
func NewReverseCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dateFlag   string
		postFlag   bool
		cancelFlag bool
	)

	cmd := &cobra.Command{
		Use:   "reverse <move-id>",
		Short: "Create the offsetting entry of a posted move",
		Long: `Draft the reversal of a posted entry.

Hashed entries and entries in locked periods cannot be reopened; the
reversal is the supported way to undo them. Pass --post to post the
reversal immediately, or --cancel to post it and reconcile it against
the original so the pair shows no open balance.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReverse(rootOpts, cmd, args[0], dateFlag, postFlag, cancelFlag)
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "", "accounting date of the reversal (default today)")
	cmd.Flags().BoolVar(&postFlag, "post", false, "post the reversal immediately")
	cmd.Flags().BoolVar(&cancelFlag, "cancel", false, "post the reversal and reconcile it against the original")
	return cmd
}

func runReverse(opts *RootOptions, cmd *cobra.Command, arg, dateFlag string, post, cancel bool) error {
	eng, closer, err := openEngine(opts)
	if err != nil {
		return err
	}
	defer closer()
	out := formatter(cmd, opts)
	ctx := cmd.Context()

	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid move id "+arg, err)
	}
	m, err := eng.Store.Conn().GetMove(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "load move "+arg, err)
	}

	var date time.Time
	if dateFlag != "" {
		date, err = time.Parse("2006-01-02", dateFlag)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid date "+dateFlag, err)
		}
	}

	rev, err := (&reversal.Reverser{Engine: eng}).Reverse(ctx, m, reversal.Options{Date: date, Post: post, Cancel: cancel})
	if err != nil {
		return out.Failure(err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{
			"id": rev.ID, "name": rev.DisplayName(), "state": string(rev.State),
		})
	}
	return out.Success("reversal " + rev.DisplayName() + " (" + string(rev.State) + ")")
}
