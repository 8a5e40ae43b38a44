// List command prints registered bins as lines, a table, or JSON.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wastebin/internal/console"
	"github.com/mesh-intelligence/wastebin/pkg/types"
)

type listOptions struct {
	needsCollection bool
	table           bool
}

func newListCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered waste bins",
		Long: `List prints every registered bin in registration order.

Output is a table on a terminal and one line per bin otherwise. Use --json
for machine-readable output.

Example:
  wastebin list
  wastebin list --needs-collection
  wastebin list --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(s *session) error {
				return runList(cmd.OutOrStdout(), s.store.List(), opts)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.needsCollection, "needs-collection", false, "only bins that need collection")
	cmd.Flags().BoolVar(&opts.table, "table", false, "render a table even when output is not a terminal")
	return cmd
}

func runList(out io.Writer, bins []types.Bin, opts listOptions) error {
	if opts.needsCollection {
		filtered := bins[:0]
		for _, b := range bins {
			if b.NeedsCollection {
				filtered = append(filtered, b)
			}
		}
		bins = filtered
	}

	if flags.jsonMode {
		if bins == nil {
			bins = []types.Bin{}
		}
		data, err := json.MarshalIndent(bins, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal bins: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(bins) == 0 {
		fmt.Fprintln(out, "No waste bins registered.")
		return nil
	}

	if opts.table || isTerminal(out) {
		rows := make([][]string, 0, len(bins))
		for _, b := range bins {
			rows = append(rows, []string{
				strconv.Itoa(b.ID),
				b.Location,
				b.MaterialType,
				strconv.Itoa(b.FillLevel) + "%",
				console.Status(b),
			})
		}
		fmt.Fprintln(out, renderTable(binColumns, rows))
		return nil
	}

	for _, b := range bins {
		fmt.Fprintln(out, console.FormatBin(b))
	}
	return nil
}
