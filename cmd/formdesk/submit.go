package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdesk/pkg/fill"
	"github.com/goliatone/go-formdesk/pkg/submission"
)

var fillCmd = &cobra.Command{
	Use:     "fill <id>",
	Short:   "Answer a form interactively and submit it",
	GroupID: "responses",
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

		noConfirm, _ := cmd.Flags().GetBool("yes")
		values, err := fill.New(fill.WithConfirm(!noConfirm)).Fill(cmd.Context(), form)
		if errors.Is(err, fill.ErrCancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "Submission cancelled.")
			return nil
		}
		if err != nil {
			return err
		}

		ack, err := desk.SubmitForm(cmd.Context(), form, values)
		if err != nil {
			return explainSubmitError(cmd, err)
		}
		return printAck(cmd.OutOrStdout(), ack)
	},
}

var submitCmd = &cobra.Command{
	Use:     "submit <id>",
	Short:   "Submit answers given as flags",
	GroupID: "responses",
	Example: "  formdesk submit 3 --set full_name='Ada Lovelace' --set skills=go --set skills=sql --file resume=cv.pdf",
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

		sets, _ := cmd.Flags().GetStringArray("set")
		files, _ := cmd.Flags().GetStringArray("file")
		values, err := buildValues(form, sets, files)
		if err != nil {
			return err
		}

		ack, err := desk.SubmitForm(cmd.Context(), form, values)
		if err != nil {
			return explainSubmitError(cmd, err)
		}
		return printAck(cmd.OutOrStdout(), ack)
	},
}

// explainSubmitError prints per-field messages for local and store-side
// rejections before returning the error.
func explainSubmitError(cmd *cobra.Command, err error) error {
	var (
		invalid  *submission.ValidationError
		rejected *submission.RejectedError
	)
	switch {
	case errors.As(err, &invalid):
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", invalid.Field, invalid.Err)
	case errors.As(err, &rejected):
		for _, msg := range rejected.Details.Form {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", msg)
		}
		for _, name := range rejected.Details.FieldNames() {
			for _, msg := range rejected.Details.Fields[name] {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", name, msg)
			}
		}
	}
	logger.Debug("submit failed", zap.Error(err))
	return err
}

func init() {
	fillCmd.Flags().BoolP("yes", "y", false, "submit without asking for confirmation")

	submitCmd.Flags().StringArray("set", nil, "answer as name=value; repeat for each checkbox choice")
	submitCmd.Flags().StringArray("file", nil, "file answer as name=path (repeatable)")
}
