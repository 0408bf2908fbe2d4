package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/Sternrassler/randomuser-pager/pkg/export"
	"github.com/Sternrassler/randomuser-pager/pkg/pagination"
	"github.com/spf13/cobra"
)

func newExportCmd(state *cliState) *cobra.Command {
	var (
		page   int
		gender string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write one page of users as CSV",
		Example: `  userlist export --page 2 --gender male
  userlist export --page 6 --output users.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), state.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			req := pagination.NewPageRequest(fmt.Sprint(page), gender)

			var buf bytes.Buffer
			if err := a.exporter.Export(cmd.Context(), req, &buf); err != nil {
				a.logger.Error().Err(err).Msg("Export failed")
				return errors.New(pagination.GenericErrorMessage)
			}

			if output == "" || output == "-" {
				_, err := buf.WriteTo(cmd.OutOrStdout())
				return err
			}

			// The file is only created once the page resolved.
			if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			a.logger.Info().Str("file", output).Int("page", req.Page).Msg("Export written")
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number (1-based)")
	cmd.Flags().StringVar(&gender, "gender", "", "filter: male or female")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout, e.g. "+export.Filename+")")

	return cmd
}
