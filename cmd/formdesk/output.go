package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goliatone/go-formdesk/pkg/export"
	"github.com/goliatone/go-formdesk/pkg/responses"
	"github.com/goliatone/go-formdesk/pkg/submission"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printAck(w io.Writer, ack submission.Ack) error {
	if jsonOutput {
		return printJSON(w, ack)
	}
	message := ack.Message
	if message == "" {
		message = "Form submitted"
	}
	fmt.Fprintf(w, "%s (submission %d)\n", message, ack.SubmissionID)
	if ack.FileUpload != "" {
		fmt.Fprintf(w, "File: %s\n", ack.FileUpload)
	}
	return nil
}

type pageJSON struct {
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	TotalPages int                `json:"total_pages"`
	PageSize   int                `json:"page_size"`
	Items      []responses.Record `json:"items"`
}

func pageView(page responses.Page) pageJSON {
	return pageJSON{
		Total:      page.Total,
		Page:       page.Page,
		TotalPages: page.TotalPages,
		PageSize:   page.PageSize,
		Items:      page.Items,
	}
}

// printResponsesTable renders one page like the dashboard table, numbering
// rows from the page offset.
func printResponsesTable(w io.Writer, page responses.Page, opts export.TableOptions) {
	if page.Total == 0 {
		fmt.Fprintln(w, "No responses found.")
		return
	}
	if len(page.Items) == 0 {
		fmt.Fprintf(w, "Page %d is past the end (%d pages).\n", page.Page, page.TotalPages)
		return
	}

	table := export.BuildTable(page.Items, opts)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "#\t%s\n", strings.Join(table.Titles(), "\t"))
	for i, row := range table.Rows {
		fmt.Fprintf(tw, "%d\t%s\n", page.Offset+i, strings.Join(row.Values(), "\t"))
	}
	tw.Flush()

	last := page.Offset + len(page.Items) - 1
	fmt.Fprintf(w, "Showing %d-%d of %d (page %d of %d)\n", page.Offset, last, page.Total, page.Page, page.TotalPages)
}
