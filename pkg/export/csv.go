// Package export renders resolved pages as CSV downloads.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Sternrassler/randomuser-pager/pkg/pagination"
	"github.com/Sternrassler/randomuser-pager/pkg/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// ContentType of the export response
	ContentType = "text/csv"

	// Filename offered to the browser
	Filename = "users.csv"

	// ContentDisposition marks the response as a download
	ContentDisposition = `attachment; filename="` + Filename + `"`
)

// Header is the CSV header row.
var Header = []string{"Name", "Email", "Gender", "Nationality"}

// PageResolver resolves the page to export.
type PageResolver interface {
	Resolve(ctx context.Context, req pagination.PageRequest) (pagination.ResolvedPage, error)
}

// Serialize writes records as CSV: a header row, then one row per record.
func Serialize(w io.Writer, records []users.Record) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, record := range records {
		row := []string{
			record.Name.Full(),
			record.Email,
			record.DisplayGender(),
			record.Nat,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Exporter serializes the same page the listing would show.
type Exporter struct {
	resolver PageResolver
	logger   zerolog.Logger
}

// NewExporter creates an exporter on top of resolver.
func NewExporter(resolver PageResolver) *Exporter {
	if resolver == nil {
		panic("page resolver cannot be nil")
	}
	return &Exporter{
		resolver: resolver,
		logger:   log.With().Str("component", "csv-exporter").Logger(),
	}
}

// Export resolves req and writes the page as CSV to w. Nothing is written to w
// when resolving or serializing fails.
func (e *Exporter) Export(ctx context.Context, req pagination.PageRequest, w io.Writer) error {
	page, err := e.resolver.Resolve(ctx, req)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Serialize(&buf, page.Records); err != nil {
		return fmt.Errorf("serialize page %d: %w", page.Page, err)
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	e.logger.Debug().
		Int("page", page.Page).
		Str("filter", page.Filter.Label()).
		Int("records", len(page.Records)).
		Msg("Exported page")

	return nil
}
