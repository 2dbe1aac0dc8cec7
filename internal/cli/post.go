package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewPostCommand creates the post command.
func NewPostCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post <move-id>...",
		Short: "Post draft journal entries",
		Long: `Validate and post one or more draft entries.

Posting recomputes the derived lines, checks the balance, allocates the
sequence name, and extends the journal's hash chain when enabled.

Example:
  bookkeep post --db ./books.db --config ./masters.yaml 42 43`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(rootOpts, cmd, args)
		},
	}
	return cmd
}

func runPost(opts *RootOptions, cmd *cobra.Command, args []string) error {
	eng, closer, err := openEngine(opts)
	if err != nil {
		return err
	}
	defer closer()
	out := formatter(cmd, opts)
	ctx := cmd.Context()

	type postedEntry struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Hash string `json:"hash,omitempty"`
	}
	var posted []postedEntry

	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid move id "+arg, err)
		}
		m, err := eng.Store.Conn().GetMove(ctx, id)
		if err != nil {
			return WrapExitError(ExitCommandError, "load move "+arg, err)
		}
		if err := eng.Post(ctx, m); err != nil {
			return out.Failure(err)
		}
		posted = append(posted, postedEntry{ID: m.ID, Name: m.Name, Hash: m.Hash})
	}

	if opts.Format == "json" {
		return out.Success(posted)
	}
	for _, p := range posted {
		if p.Hash != "" {
			out.Success("posted " + p.Name + " (hashed)")
		} else {
			out.Success("posted " + p.Name)
		}
	}
	return nil
}
