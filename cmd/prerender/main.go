// Command prerender assembles the shell page with every section fragment
// injected, optionally translated, and writes the result.
//
//	prerender                           # fragments from SITE_ROOT, page to stdout
//	prerender --base-url http://localhost:6985 --lang ENG -o dist/index.html
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/edugate/sitecms/internal/config"
	"github.com/edugate/sitecms/internal/i18n"
	"github.com/edugate/sitecms/internal/sections"
	"github.com/edugate/sitecms/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

type options struct {
	root    string
	shell   string
	baseURL string
	lang    string
	out     string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "prerender",
		Short:         "Write the shell page with its section fragments injected",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// assemble fully before touching --output
			var buf bytes.Buffer
			res, err := run(cmd.Context(), opts, &buf)
			if err != nil {
				return err
			}
			if opts.out == "" || opts.out == "-" {
				if _, err := buf.WriteTo(cmd.OutOrStdout()); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
			} else if err := writeFile(opts.out, buf.Bytes()); err != nil {
				return err
			}
			logger.Infof("prerender: injected=%d skipped=%d", len(res.Injected), len(res.Skipped))
			return nil
		},
	}

	root := "."
	shell := "index.html"
	if cfg, err := config.LoadConfig(); err == nil {
		root, shell = cfg.Site.Root, cfg.Site.ShellPage
	}
	cmd.Flags().StringVar(&opts.root, "root", root, "site root holding the shell page (and fragments unless --base-url is set)")
	cmd.Flags().StringVar(&opts.shell, "shell", shell, "shell page, relative to --root")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "fetch fragments and dictionaries from a running site instead of --root")
	cmd.Flags().StringVar(&opts.lang, "lang", "", "translate with this language label (AZE, ENG, USA) after injection")
	cmd.Flags().StringVarP(&opts.out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func run(ctx context.Context, opts *options, w io.Writer) (*sections.Result, error) {
	shell, err := os.ReadFile(filepath.Join(opts.root, opts.shell))
	if err != nil {
		return nil, fmt.Errorf("read shell page: %w", err)
	}

	var fetcher sections.Fetcher = sections.FSFetcher{FS: os.DirFS(opts.root)}
	if opts.baseURL != "" {
		hf, err := sections.NewHTTPFetcher(opts.baseURL, nil)
		if err != nil {
			return nil, err
		}
		fetcher = hf
	}

	var ready sections.ReadyFunc
	if opts.lang != "" {
		tr := i18n.New(i18n.DefaultConfig(), fetcher)
		ready = func(ctx context.Context, doc *html.Node) error {
			n := tr.SetLanguage(ctx, doc, opts.lang)
			logger.Debugf("prerender: translated %d element(s) to %s", n, tr.Normalize(opts.lang))
			return nil
		}
	}

	out, res, err := sections.NewLoader(fetcher, nil).Assemble(ctx, shell, ready)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(out); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}
	return res, nil
}

func writeFile(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	// keep stdout for the page
	logger.SetOutput(os.Stderr)
	if err := newRootCmd().Execute(); err != nil {
		logger.Errorf("prerender: %v", err)
		os.Exit(1)
	}
}
