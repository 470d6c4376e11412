package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lodging_console_v1_202610/internal/app"
	"lodging_console_v1_202610/internal/draftfile"
	"lodging_console_v1_202610/internal/service"
)

func newSubmitCmd(opts *cliOptions) *cobra.Command {
	var (
		file       string
		token      string
		operatorID int64
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Walk a draft through the wizard and submit it",
		Long: "submit runs the draft through every wizard step, then compresses, uploads,\n" +
			"assembles and creates the listing (or updates it when listing_id is set).",
		Example: `  listingctl submit -f draft.yaml --token $LISTING_TOKEN`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				token = os.Getenv("LISTINGCTL_TOKEN")
			}
			if token == "" {
				return service.ErrNotReady
			}

			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			f, err := draftfile.Load(file)
			if err != nil {
				return err
			}
			d, err := f.Draft()
			if err != nil {
				return err
			}

			pipeline, err := app.NewPipeline(cfg, nil, log)
			if err != nil {
				return err
			}
			wizards := service.NewWizardService(pipeline.Submit, service.StaticCredentials(token), log)
			w := wizards.OpenDraft(operatorID, d)
			defer func() { _ = wizards.Close(w.ID()) }()

			out := cmd.OutOrStdout()
			if _, errs, err := w.AdvanceToEnd(); err != nil {
				return err
			} else if !errs.Empty() {
				return reportValidation(out, pipeline.Submit.Validator, d)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			listing, err := w.Submit(ctx)
			if err != nil {
				var verrs service.ValidationErrors
				if errors.As(err, &verrs) {
					return reportValidation(out, pipeline.Submit.Validator, d)
				}
				log.Error("提交失败", zap.Error(err))
				return err
			}

			fmt.Fprintf(out, "listing %s submitted (status: %s)\n", listing.ID, statusOr(listing.Status, "unknown"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "draft YAML file")
	cmd.Flags().StringVar(&token, "token", "", "bearer token forwarded to the backend (default $LISTINGCTL_TOKEN)")
	cmd.Flags().Int64Var(&operatorID, "operator", 0, "operator id recorded with the submission")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func statusOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
