// Package cli wires the transcript service into a command line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
)

var (
	flagURL        string
	flagLang       string
	flagPreferAuto bool
)

// NewRootCmd builds the root command with all subcommands attached.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "go_transcript",
		Short:         "Fetch YouTube transcripts as timed, chunked, citable JSON",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newTranscriptCmd(),
		newTracksCmd(),
		newMetadataCmd(),
		newServeCmd(version),
		newMCPCmd(version),
		newCacheCmd(),
	)
	return root
}

// buildService assembles the service from environment configuration. The
// caller owns the returned cache and must close it.
func buildService() (*engine.Service, *engine.Cache, engine.Config, error) {
	cfg, err := engine.LoadConfig()
	if err != nil {
		return nil, nil, cfg, fmt.Errorf("load config: %w", err)
	}

	cache, err := engine.OpenCache(filepath.Join(cfg.CacheDir, "transcripts.sqlite3"), engine.SchemaVersion)
	if err != nil {
		return nil, nil, cfg, fmt.Errorf("open cache: %w", err)
	}

	svc := engine.NewService(cfg,
		sources.NewYouTube(cfg.HTTPClient, cfg.UpstreamRPS),
		sources.NewOEmbed(cfg.HTTPClient),
		cache)
	return svc, cache, cfg, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
