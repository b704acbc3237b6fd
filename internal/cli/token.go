package cli

import (
	"fmt"
	"time"

	"ivr-flow/internal/util"

	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the admin API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Admin.JWTSecret == "" {
			return fmt.Errorf("admin.jwt_secret is not set")
		}

		ttl := tokenTTL
		if ttl <= 0 {
			ttl = time.Duration(cfg.Admin.TokenTTLHours) * time.Hour
		}
		token, err := util.GenerateToken(cfg.Admin.JWTSecret, cfg.Admin.JWTIssuer, tokenSubject, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default admin.token_ttl_hours)")
}
