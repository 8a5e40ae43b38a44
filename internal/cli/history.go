// History command prints the mutation log recorded in history.jsonl.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wastebin/pkg/types"
)

type historyOptions struct {
	binID     int
	filterBin bool
	limit     int
	table     bool
}

func newHistoryCmd() *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the log of bin mutations",
		Long: `History prints every recorded mutation (register, update_level, mark,
delete), oldest first.

Example:
  wastebin history
  wastebin history --bin 4 --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.filterBin = cmd.Flags().Changed("bin")
			return withSession(func(s *session) error {
				events, err := s.history.Read()
				if err != nil {
					return fmt.Errorf("read history: %w", err)
				}
				return runHistory(cmd.OutOrStdout(), events, opts)
			})
		},
	}
	cmd.Flags().IntVar(&opts.binID, "bin", 0, "only events for this bin id")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "show only the most recent N events (0 for all)")
	cmd.Flags().BoolVar(&opts.table, "table", false, "render a table even when output is not a terminal")
	return cmd
}

func runHistory(out io.Writer, events []types.Event, opts historyOptions) error {
	if opts.filterBin {
		filtered := make([]types.Event, 0, len(events))
		for _, e := range events {
			if e.BinID == opts.binID {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	if opts.limit > 0 && len(events) > opts.limit {
		events = events[len(events)-opts.limit:]
	}

	if flags.jsonMode {
		if events == nil {
			events = []types.Event{}
		}
		data, err := json.MarshalIndent(events, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal events: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(events) == 0 {
		fmt.Fprintln(out, "No history recorded.")
		return nil
	}

	if opts.table || isTerminal(out) {
		rows := make([][]string, 0, len(events))
		for _, e := range events {
			rows = append(rows, []string{
				e.CreatedAt.Local().Format(time.DateTime),
				e.Operation,
				strconv.Itoa(e.BinID),
				strconv.Itoa(e.FillLevel) + "%",
				strconv.FormatBool(e.NeedsCollection),
			})
		}
		fmt.Fprintln(out, renderTable(eventColumns, rows))
		return nil
	}

	for _, e := range events {
		fmt.Fprintf(out, "%s %-12s bin=%d level=%d%% needs_collection=%t\n",
			e.CreatedAt.Local().Format(time.RFC3339), e.Operation, e.BinID, e.FillLevel, e.NeedsCollection)
	}
	return nil
}
