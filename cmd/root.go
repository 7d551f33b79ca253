package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/xhad/docspace/pkg/config"
	"github.com/xhad/docspace/pkg/engine"
)

type globalFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "docspace",
		Short: "Store documents and search them by meaning",
		Long: `docspace stores text documents, splits them into topical chunks,
embeds every chunk and answers semantic and keyword searches.

Configuration is read from docspace.yaml, ~/.config/docspace/config.yaml
or /etc/docspace/config.yaml, then overridden by environment variables
such as DATABASE_URL and EMBEDDING_BASE_URL. A .env file is loaded first.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to config file")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log ingestion and search details to stderr")

	root.AddCommand(
		newServeCmd(flags),
		newMCPCmd(flags),
		newAddCmd(flags),
		newImportCmd(flags),
		newListCmd(flags),
		newShowCmd(flags),
		newRemoveCmd(flags),
		newRechunkCmd(flags),
		newSearchCmd(flags),
	)
	return root
}

func (f *globalFlags) logger() *log.Logger {
	if !f.verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "docspace: ", log.LstdFlags)
}

func (f *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func (f *globalFlags) openEngine() (*engine.Engine, *config.Config, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	eng, err := engine.Open(cfg, f.logger())
	if err != nil {
		return nil, nil, fmt.Errorf("opening engine: %w", err)
	}
	return eng, cfg, nil
}

// serverLogger always logs; request errors matter even without --verbose.
func (f *globalFlags) serverLogger() *log.Logger {
	return log.New(os.Stderr, "docspace: ", log.LstdFlags)
}
