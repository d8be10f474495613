package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "shortreel <input>...",
		Short:        "Cut vertical highlight clips from long-form videos",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args)
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.Flags().String("config", "", "Path to TOML config file")
	root.Flags().String("out", "out", "Output directory")
	root.Flags().String("cache", ".cache", "Cache directory")
	root.Flags().Int("clips", 0, "Number of clips (overrides config)")
	root.Flags().String("language", "", "Transcript language hint (overrides config)")
	root.Flags().String("provider", "", "Oracle provider: openrouter or ollama (overrides config)")
	root.Flags().String("model", "", "Oracle model (overrides config)")
	root.Flags().String("log-level", "", "Log level: debug, info, warn, error")
	root.Flags().Bool("log-json", false, "Emit JSON logs")
	root.Flags().Bool("no-progress", false, "Disable the frame scan progress bar")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
