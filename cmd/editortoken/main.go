// Command editortoken prints a bearer token accepted by the write endpoints
// when EDITOR_JWT_SECRET is set.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/edugate/sitecms/internal/config"
	"github.com/edugate/sitecms/internal/tokens"
	"github.com/edugate/sitecms/pkg/logger"
	"github.com/spf13/cobra"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:           "editortoken --sub NAME",
		Short:         "Mint an editor bearer token signed with EDITOR_JWT_SECRET",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Editor.JWTSecret == "" {
				return errors.New("EDITOR_JWT_SECRET is not set")
			}
			ed, err := tokens.NewEditor(cfg.Editor.JWTSecret)
			if err != nil {
				return err
			}
			tok, err := ed.Generate(subject, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "editor name stored in the token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", cfg.Editor.TokenTTL, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.SetOutput(os.Stderr)
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if err := newRootCmd(cfg).Execute(); err != nil {
		logger.Errorf("editortoken: %v", err)
		os.Exit(1)
	}
}
