package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formdesk/pkg/contract"
	"github.com/goliatone/go-formdesk/pkg/formfile"
)

// parseFormID reads a positive form id argument.
func parseFormID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid form id %q", raw)
	}
	return id, nil
}

var createCmd = &cobra.Command{
	Use:     "create -f <file|url>",
	Short:   "Create a form from a YAML or JSON definition",
	GroupID: "forms",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		src, err := formfile.ParseSource(path)
		if err != nil {
			return err
		}
		draft, err := formfile.NewFetcher(formfile.WithTimeout(cfg.API.Timeout)).Load(cmd.Context(), src)
		if err != nil {
			return err
		}

		form, warnings, err := desk.CreateForm(cmd.Context(), draft)
		for _, warning := range warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), form)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created form %d %q (slug %s)\n", form.ID, form.Name, form.Slug)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Print a form definition",
	GroupID: "forms",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseFormID(args[0])
		if err != nil {
			return err
		}
		form, err := desk.Form(cmd.Context(), id)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), form)
		}
		data, err := formfile.Marshal(form)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var contractCmd = &cobra.Command{
	Use:     "contract <id>",
	Short:   "Print the OpenAPI contract of a form's submit endpoint",
	GroupID: "forms",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseFormID(args[0])
		if err != nil {
			return err
		}
		c, err := desk.Contract(cmd.Context(), id, contract.WithServerURL(cfg.API.BaseURL))
		if err != nil {
			return err
		}
		data, err := c.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	createCmd.Flags().StringP("file", "f", "", "form definition file or http(s) URL (.yaml, .yml or .json)")
	_ = createCmd.MarkFlagRequired("file")
}
