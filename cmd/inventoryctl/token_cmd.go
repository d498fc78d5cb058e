package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/bluesky/api/internal/access"
)

type tokenOutput struct {
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
}

func newTokenCmd() *cobra.Command {
	var (
		userID int64
		ttl    time.Duration
		issuer string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID < 1 {
				return fmt.Errorf("invalid --user: %d", userID)
			}
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return errors.New("JWT_SECRET is required")
			}

			token, err := access.IssueToken(secret, issuer, userID, ttl)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), tokenOutput{
				Token:     token,
				UserID:    userID,
				ExpiresAt: time.Now().Add(ttl).UTC().Truncate(time.Second),
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User id placed in the token subject (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	cmd.Flags().StringVar(&issuer, "issuer", envOr("JWT_ISSUER", "bluesky"), "Token issuer")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
