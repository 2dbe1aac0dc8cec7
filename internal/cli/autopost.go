package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bookkeep/internal/autopost"
)

// NewAutopostCommand creates the autopost command.
func NewAutopostCommand(rootOpts *RootOptions) *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "autopost",
		Short: "Post scheduled drafts whose date has arrived",
		Long: `Run one auto-posting sweep.

Due drafts post in date order up to the batch size; entries that fail to
post are flagged for review and the sweep continues. A full batch means
more work remains and the command should be run again.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAutopost(rootOpts, cmd, batch)
		},
	}
	cmd.Flags().IntVar(&batch, "batch", autopost.DefaultBatchSize, "maximum drafts to post in one sweep")
	return cmd
}

func runAutopost(opts *RootOptions, cmd *cobra.Command, batch int) error {
	eng, closer, err := openEngine(opts)
	if err != nil {
		return err
	}
	defer closer()
	out := formatter(cmd, opts)

	runner := autopost.New(eng)
	runner.BatchSize = batch
	res, err := runner.Run(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "autopost sweep", err)
	}

	if opts.Format == "json" {
		return out.Success(res)
	}
	msg := fmt.Sprintf("posted %d, failed %d", res.Posted, res.Failed)
	if res.More {
		msg += " (more due, run again)"
	}
	return out.Success(msg)
}
