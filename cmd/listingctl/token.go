package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lodging_console_v1_202610/internal/middleware"
)

// newTokenCmd 用配置中的 auth.jwt_secret 签发操作员令牌，便于本地联调
func newTokenCmd(opts *cliOptions) *cobra.Command {
	var (
		operatorID int64
		name       string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator token signed with auth.jwt_secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			token, err := middleware.IssueToken(middleware.AuthConfig{
				SecretKey: cfg.Auth.JWTSecret,
				Issuer:    "lodging-console",
			}, operatorID, name, ttl)
			if err != nil {
				return fmt.Errorf("签发令牌失败: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&operatorID, "operator", 1, "operator id")
	cmd.Flags().StringVar(&name, "name", "operator", "operator display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 2*time.Hour, "token lifetime")
	return cmd
}
