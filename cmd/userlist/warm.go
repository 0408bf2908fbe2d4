package main

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/Sternrassler/randomuser-pager/pkg/pagination"
	"github.com/Sternrassler/randomuser-pager/pkg/users"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newWarmCmd(state *cliState) *cobra.Command {
	var (
		batches     int
		genders     []string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Preload batches into the cache",
		Long: `Preload the first N batches of each filter. Useful with the redis backend,
where a running server shares the warmed cache.`,
		Example: `  userlist warm --batches 4
  userlist warm --batches 2 --gender male --gender female`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), state.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			filters := make([]users.Filter, 0, len(genders))
			for _, g := range genders {
				filters = append(filters, users.ParseFilter(g))
			}

			warmCfg := pagination.DefaultWarmConfig()
			if concurrency > 0 {
				warmCfg.MaxConcurrency = concurrency
			}
			warmCfg.Timeout = state.cfg.Upstream.Timeout * time.Duration(state.cfg.Upstream.MaxAttempts)

			results, warmErr := pagination.NewWarmer(a.resolver, warmCfg).Warm(cmd.Context(), filters, batches)

			slices.SortFunc(results, func(x, y pagination.WarmResult) int {
				return cmp.Or(cmp.Compare(x.Filter, y.Filter), cmp.Compare(x.BatchID, y.BatchID))
			})

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Filter", "Batch", "Records", "Status"})
			table.SetBorder(false)
			table.SetAutoFormatHeaders(true)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			for _, r := range results {
				status := "ok"
				if r.Error != nil {
					status = "failed"
				}
				table.Append([]string{r.Filter.Label(), strconv.Itoa(r.BatchID), strconv.Itoa(r.Records), status})
			}
			table.Render()

			if warmErr != nil {
				return fmt.Errorf("warm: %w", warmErr)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&batches, "batches", 1, "number of batches to load per filter")
	cmd.Flags().StringSliceVar(&genders, "gender", nil, "filters to warm (male, female; default unfiltered)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel batch loads (default 2)")

	return cmd
}
