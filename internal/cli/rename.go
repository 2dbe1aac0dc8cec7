package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewRenameCommand creates the rename command.
func NewRenameCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <move-id> <name>",
		Short: "Rewrite a move's sequence name",
		Long: `Assign a new sequence name, e.g. when resequencing after a gap.

Hash-locked names never change. Freeing a posted number flags the next
entry in the series so the gap stays visible.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRename(rootOpts, cmd, args[0], args[1])
		},
	}
	return cmd
}

func runRename(opts *RootOptions, cmd *cobra.Command, arg, name string) error {
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
	old := m.Name
	if err := eng.Rename(ctx, m, name); err != nil {
		return out.Failure(err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{"id": m.ID, "old": old, "new": m.Name})
	}
	return out.Success("renamed " + old + " to " + m.Name)
}
