package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"lodging_console_v1_202610/internal/draftfile"
	"lodging_console_v1_202610/internal/model"
	"lodging_console_v1_202610/internal/service"
)

var errInvalidDraft = errors.New("draft is not valid")

func newValidateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a draft file against every wizard step",
		Example: `  listingctl validate -f draft.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := draftfile.Load(file)
			if err != nil {
				return err
			}
			d, err := f.Draft()
			if err != nil {
				return err
			}
			return reportValidation(cmd.OutOrStdout(), service.NewStepValidator(), d)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "draft YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// reportValidation 按步骤输出校验结果
func reportValidation(w io.Writer, v *service.StepValidator, d *model.ListingDraft) error {
	failed := false
	for _, step := range model.Steps {
		errs := v.ValidateStep(d, step.Index)
		if errs.Empty() {
			fmt.Fprintf(w, "✓ %d %s\n", step.Index+1, step.Title)
			continue
		}
		failed = true
		fmt.Fprintf(w, "✗ %d %s\n", step.Index+1, step.Title)
		for _, field := range errs.Fields() {
			fmt.Fprintf(w, "    %s: %s\n", field, errs[field])
		}
	}
	if failed {
		return errInvalidDraft
	}
	fmt.Fprintln(w, "draft is ready to submit")
	return nil
}
