package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Sternrassler/randomuser-pager/pkg/pagination"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newListCmd(state *cliState) *cobra.Command {
	var (
		page   int
		gender string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of users",
		Example: `  userlist list --page 6
  userlist list --gender female --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), state.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			req := pagination.NewPageRequest(fmt.Sprint(page), gender)
			resolved, err := a.resolver.Resolve(cmd.Context(), req)
			if err != nil {
				a.logger.Error().Err(err).Msg("Listing failed")
				return errors.New(pagination.GenericErrorMessage)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resolved)
			}
			printPage(cmd.OutOrStdout(), resolved)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number (1-based)")
	cmd.Flags().StringVar(&gender, "gender", "", "filter: male or female")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the resolved page as JSON")

	return cmd
}

// printPage renders records as a borderless table followed by a navigation line.
func printPage(w io.Writer, page pagination.ResolvedPage) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Email", "Gender", "Nationality"})

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, record := range page.Records {
		table.Append([]string{record.Name.Full(), record.Email, record.DisplayGender(), record.Nat})
	}
	table.Render()

	nav := fmt.Sprintf("\npage %d (batch %d, filter %s)", page.Page, page.BatchID, page.Filter.Label())
	if page.HasPrev() {
		nav += fmt.Sprintf("  prev: --page %d", page.Page-1)
	}
	if page.HasNext() {
		nav += fmt.Sprintf("  next: --page %d", page.Page+1)
	}
	fmt.Fprintln(w, nav)
}
