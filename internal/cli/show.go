package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bookkeep/internal/ledger"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <move-id|uuid>",
		Short: "Display a journal entry with its lines",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

type shownLine struct {
	Name        string `json:"name"`
	DisplayType string `json:"display_type"`
	Account     int64  `json:"account"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Amount      string `json:"amount_currency"`
}

type shownMove struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	State    string      `json:"state"`
	MoveType string      `json:"move_type"`
	Date     string      `json:"date"`
	Currency string      `json:"currency"`
	Total    string      `json:"amount_total"`
	Hash     string      `json:"hash,omitempty"`
	Lines    []shownLine `json:"lines"`
}

func runShow(opts *RootOptions, cmd *cobra.Command, arg string) error {
	eng, closer, err := openEngine(opts)
	if err != nil {
		return err
	}
	defer closer()
	out := formatter(cmd, opts)
	ctx := cmd.Context()

	// Numeric arguments are row ids; anything else is treated as the
	// creation token assigned before the move had a name.
	var m *ledger.Move
	if id, parseErr := strconv.ParseInt(arg, 10, 64); parseErr == nil {
		m, err = eng.Store.Conn().GetMove(ctx, id)
	} else {
		m, err = eng.Store.Conn().GetMoveByUUID(ctx, arg)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "load move "+arg, err)
	}

	view := shownMove{
		ID:       m.ID,
		Name:     m.DisplayName(),
		State:    string(m.State),
		MoveType: string(m.MoveType),
		Date:     m.Date.Format("2006-01-02"),
		Currency: m.CurrencyCode,
		Total:    m.AmountTotal().String(),
		Hash:     m.Hash,
	}
	for _, l := range m.Lines {
		view.Lines = append(view.Lines, shownLine{
			Name:        l.Name,
			DisplayType: string(l.DisplayType),
			Account:     l.AccountID,
			Debit:       l.Debit().String(),
			Credit:      l.Credit().String(),
			Amount:      l.AmountCurrency.String(),
		})
	}

	if opts.Format == "json" {
		return out.Success(view)
	}
	return out.Success(renderMove(m, view))
}

func renderMove(m *ledger.Move, view shownMove) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  [%s]  %s  %s %s\n",
		view.Name, view.State, view.Date, view.Total, view.Currency)
	if view.Hash != "" {
		fmt.Fprintf(&b, "hash: %s\n", view.Hash)
	}
	for _, l := range view.Lines {
		fmt.Fprintf(&b, "  %-14s %-24s acct=%-6d debit=%-12s credit=%-12s amount=%s\n",
			l.DisplayType, l.Name, l.Account, l.Debit, l.Credit, l.Amount)
	}
	return strings.TrimRight(b.String(), "\n")
}
