package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/sci-dl/internal/acquire"
	"github.com/pdiddy/sci-dl/internal/config"
	"github.com/pdiddy/sci-dl/internal/httputil"
	"github.com/pdiddy/sci-dl/internal/logging"
	"github.com/pdiddy/sci-dl/internal/mirror"
	"github.com/pdiddy/sci-dl/internal/secrets"
	"github.com/pdiddy/sci-dl/pkg/types"
)

var dlCmd = &cobra.Command{
	Use:   "dl",
	Short: "Download SciHub PDF using DOI",
	Long: `Dl resolves each DOI to its landing page on the configured mirror, finds
the embedded PDF link and saves the file to the output directory as
<DOI with / replaced by _>.pdf. An existing file of that name is replaced.

Several DOIs may be given; they are downloaded one after another.`,
	Example: "  sci-dl dl -d 10.1002/9781118445112.stat06003",
	RunE:    runDl,
}

func init() {
	dlCmd.Flags().StringSliceP("doi", "d", nil, "DOI, eg, 10.1002/9781118445112.stat06003 (repeatable)")
	dlCmd.Flags().Duration("delay", 0, "delay between consecutive downloads")
	_ = dlCmd.MarkFlagRequired("doi")

	rootCmd.AddCommand(dlCmd)
}

func runDl(cmd *cobra.Command, args []string) error {
	dois, _ := cmd.Flags().GetStringSlice("doi")
	if len(dois) == 0 {
		return fmt.Errorf("provide a DOI with --doi")
	}
	delay, _ := cmd.Flags().GetDuration("delay")

	path, err := configPath(cmd)
	if err != nil {
		return classify(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return classify(err)
	}

	log, closer, err := logging.New(logging.Config{File: cfg.LogFile, Debug: cfg.DebugMode})
	if err != nil {
		return classify(err)
	}
	defer closer.Close()
	log.Debug().Str("config", path).Strs("dois", dois).Msg("starting download")

	d, err := newDownloader(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("setting up downloader")
		return classify(err)
	}

	stderr := cmd.ErrOrStderr()
	var bar *progressBar
	finishBar := func() {
		if bar != nil {
			bar.Finish()
		}
	}
	d.NewProgress = func(doi string) acquire.ProgressFunc {
		finishBar()
		bar = newProgressBar(stderr, acquire.FileName(doi))
		return bar.Update
	}
	// Status lines must not land on an open progress line.
	stdout := &statusWriter{w: cmd.OutOrStdout(), before: finishBar}

	result := d.DownloadBatch(cmd.Context(), dois, delay, stdout)
	finishBar()

	for _, f := range result.Failures {
		log.Error().Err(f.Err).Str("doi", f.DOI).Msg("download failed")
	}
	if len(dois) == 1 && result.HasFailures() {
		return classify(result.Failures[0].Err)
	}
	for _, f := range result.Failures {
		fmt.Fprintf(stderr, "%s: %s\n", f.DOI, classify(f.Err))
	}
	if err := cmd.Context().Err(); err != nil {
		log.Warn().Err(err).Int("completed", result.Total()).Msg("batch interrupted")
		return fmt.Errorf("interrupted after %d of %d DOI(s)", result.Total(), len(dois))
	}
	if result.HasFailures() {
		return fmt.Errorf("%d of %d DOI(s) failed", len(result.Failures), len(dois))
	}
	return nil
}

// statusWriter calls before ahead of every write to w.
type statusWriter struct {
	w      io.Writer
	before func()
}

func (s *statusWriter) Write(p []byte) (int, error) {
	s.before()
	return s.w.Write(p)
}

// newDownloader builds the resolver, fetcher and downloader from cfg.
// Proxy credentials missing from the config are taken from the secrets
// directory.
func newDownloader(cfg *types.Config, log zerolog.Logger) (*acquire.Downloader, error) {
	resolver, err := mirror.NewResolver(cfg.BaseURL, cfg.FileLinkSelector)
	if err != nil {
		return nil, err
	}

	fc := httputil.FetcherConfig{
		Retries:    cfg.Retries,
		UserAgent:  cfg.UserAgent,
		Timeout:    cfg.Timeout,
		RetryDelay: cfg.RetryDelay,
		Logger:     log,
	}
	if cfg.UseProxy {
		s, err := secrets.Load(cfg.SecretsDir, log)
		if err != nil {
			return nil, err
		}
		secrets.ApplyProxyCredentials(&cfg.ProxyConfig, s)
		p := httputil.ProxyFromConfig(cfg.ProxyConfig)
		log.Debug().Str("proxy", p.Host).Str("protocol", p.Protocol).Msg("using proxy")
		fc.Proxy = &p
	}

	fetcher, err := httputil.NewFetcher(fc)
	if err != nil {
		return nil, err
	}

	return &acquire.Downloader{
		Resolver: resolver,
		Fetcher:  fetcher,
		OutDir:   cfg.OutDir,
		Log:      log,
	}, nil
}
