package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdesk/pkg/export"
	"github.com/goliatone/go-formdesk/pkg/orchestrator"
	"github.com/goliatone/go-formdesk/pkg/responses"
)

var responsesCmd = &cobra.Command{
	Use:     "responses <id>",
	Short:   "List a form's submissions, filtered and paginated",
	GroupID: "responses",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseFormID(args[0])
		if err != nil {
			return err
		}
		text, _ := cmd.Flags().GetString("query")
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("page-size")
		if size != 0 && !validPageSize(size) {
			return fmt.Errorf("--page-size must be one of %v", responses.PageSizes)
		}

		result, err := desk.Responses(cmd.Context(), responses.Query{
			FormID:   id,
			Text:     text,
			Page:     page,
			PageSize: size,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), pageView(result.Page))
		}

		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		printResponsesTable(cmd.OutOrStdout(), result.Page, export.TableOptions{
			FormID:      id,
			Placeholder: cfg.Export.Placeholder,
			Location:    loc,
		})
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:     "export <id>",
	Short:   "Export every matching submission of a form",
	GroupID: "responses",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseFormID(args[0])
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		text, _ := cmd.Flags().GetString("query")
		output, _ := cmd.Flags().GetString("output")

		serializer, err := desk.Exporters().Get(format)
		if err != nil {
			return err
		}
		info := export.Info(serializer)
		req := orchestrator.ExportRequest{FormID: id, Text: text, Format: info.Name}

		if output == "-" {
			_, err := desk.Export(cmd.Context(), req, cmd.OutOrStdout())
			return err
		}
		if output == "" {
			output = filepath.Join(cfg.Export.OutputDir, export.Filename(id, info.Extension))
		}
		if err := writeExport(cmd, req, output); err != nil {
			return err
		}
		logger.Info("export written", zap.Int64("form_id", id), zap.String("format", info.Name), zap.String("path", output))
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
		return nil
	},
}

// writeExport writes to a temporary file next to path and renames it into
// place once the serializer succeeds.
func writeExport(cmd *cobra.Command, req orchestrator.ExportRequest, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".formdesk-export-*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := desk.Export(cmd.Context(), req, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func validPageSize(size int) bool {
	for _, allowed := range responses.PageSizes {
		if size == allowed {
			return true
		}
	}
	return false
}

func init() {
	responsesCmd.Flags().StringP("query", "q", "", "only submissions containing this text")
	responsesCmd.Flags().Int("page", 1, "page number")
	responsesCmd.Flags().Int("page-size", 0, "rows per page (default from config)")

	exportCmd.Flags().String("format", "pdf", "export format: pdf, xlsx, csv or html")
	exportCmd.Flags().StringP("query", "q", "", "only submissions containing this text")
	exportCmd.Flags().StringP("output", "o", "", "output path, - for stdout (default form_<id>_responses.<ext> in export.output_dir)")
}
