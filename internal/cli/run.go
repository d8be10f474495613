package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/shortreel/shortreel/internal/config"
	"github.com/shortreel/shortreel/internal/logging"
	"github.com/shortreel/shortreel/internal/pipeline"
)

func run(cmd *cobra.Command, inputs []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	outDir, _ := cmd.Flags().GetString("out")
	cacheDir, _ := cmd.Flags().GetString("cache")
	clips, _ := cmd.Flags().GetInt("clips")
	language, _ := cmd.Flags().GetString("language")
	provider, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	logLevel, _ := cmd.Flags().GetString("log-level")
	logJSON, _ := cmd.Flags().GetBool("log-json")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	set, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if clips > 0 {
		set.Clips.MaxHighlights = clips
	}
	if language != "" {
		set.Clips.Language = language
	}
	if provider != "" {
		set.Oracle.Provider = provider
	}
	if model != "" {
		set.Oracle.Model = model
	}
	if logLevel == "" {
		logLevel = set.Log.Level
	}

	log := logging.New(os.Stderr, logLevel, logJSON || set.Log.JSON)

	abs := make([]string, 0, len(inputs))
	for _, in := range inputs {
		a, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		abs = append(abs, a)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 6*time.Hour)
	defer cancel()

	cfg := pipeline.Config{
		OutDir:   outDir,
		CacheDir: cacheDir,
		Settings: set,
		Log:      log,
	}
	if !noProgress && !logJSON {
		// Frame counts vary per highlight, so the bar runs in spinner
		// mode with a live counter.
		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("scanning frames"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
		cfg.Progress = func(done int) { _ = bar.Add(1) }
	}

	if len(abs) == 1 {
		cfg.Input = abs[0]
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		return pipeline.Run(ctx, cfg)
	}
	return pipeline.RunBatch(ctx, cfg, abs)
}
