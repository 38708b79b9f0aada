package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/video-summarizer/internal/config"
	"github.com/jonathan/video-summarizer/internal/server"
)

var tokenSubject string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the server",
	Long:  `Sign a bearer token with JWT_SECRET. The server requires one on every route except /health when JWT_SECRET is set.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		token, err := issueToken(cfg, tokenSubject)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "cli", "Caller name stored in the token")
	rootCmd.AddCommand(tokenCmd)
}

func issueToken(cfg *config.Config, subject string) (string, error) {
	jwtConfig, err := cfg.JWT()
	if err != nil {
		return "", err
	}
	return server.NewJWTService(jwtConfig).GenerateToken(subject)
}
