package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bookkeep/internal/ledger"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var state string
	cmd := &cobra.Command{
		Use:   "list <journal-id>",
		Short: "List a journal's entries in sequence order",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd, args[0], ledger.State(state))
		},
	}
	cmd.Flags().StringVar(&state, "state", string(ledger.StatePosted), "move state (draft|posted|cancel)")
	return cmd
}

type listedMove struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Date  string `json:"date"`
	Type  string `json:"move_type"`
	Total string `json:"amount_total"`
	Gap   bool   `json:"made_sequence_gap,omitempty"`
}

func runList(opts *RootOptions, cmd *cobra.Command, arg string, state ledger.State) error {
	eng, closer, err := openEngine(opts)
	if err != nil {
		return err
	}
	defer closer()
	out := formatter(cmd, opts)

	journalID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid journal id "+arg, err)
	}
	moves, err := eng.Store.Conn().ListByState(cmd.Context(), journalID, state)
	if err != nil {
		return WrapExitError(ExitCommandError, "list journal "+arg, err)
	}

	listed := make([]listedMove, 0, len(moves))
	for _, m := range moves {
		listed = append(listed, listedMove{
			ID:    m.ID,
			Name:  m.DisplayName(),
			Date:  m.Date.Format("2006-01-02"),
			Type:  string(m.MoveType),
			Total: m.AmountTotal().String(),
			Gap:   m.MadeSequenceGap,
		})
	}

	if opts.Format == "json" {
		return out.Success(listed)
	}
	var b strings.Builder
	for _, m := range listed {
		fmt.Fprintf(&b, "%-6d %-20s %s  %-12s %s", m.ID, m.Name, m.Date, m.Type, m.Total)
		if m.Gap {
			b.WriteString("  (gap before)")
		}
		b.WriteByte('\n')
	}
	if len(listed) == 0 {
		return out.Success("no " + string(state) + " entries")
	}
	return out.Success(strings.TrimRight(b.String(), "\n"))
}
