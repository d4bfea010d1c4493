package main

import (
	"errors"
	"fmt"
	"time"

	"keepwise/pkg/auth"

	"github.com/spf13/cobra"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		userID string
		email  string
		expiry time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return errors.New("refusing to mint tokens for production")
			}
			if expiry <= 0 {
				expiry = cfg.Auth.TokenExpiry
			}

			generator, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{
				SecretKey:  cfg.SigningSecret(),
				Issuer:     cfg.Auth.JWTIssuer,
				Audience:   cfg.Auth.JWTAudience,
				ExpiryTime: expiry,
			})
			if err != nil {
				return err
			}

			token, err := generator.GenerateToken(userID, email, nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Owner id placed in the sub claim")
	cmd.Flags().StringVar(&email, "email", "", "Optional email claim")
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "Token lifetime (defaults to auth.tokenExpiry)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
