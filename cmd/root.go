package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/akashicode/pdfworker/internal/config"
	"github.com/akashicode/pdfworker/internal/display"
	"github.com/akashicode/pdfworker/internal/logger"
)

var (
	cfgFile string
	appCfg  *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pdfworker",
	Short: "Extract text and layout features from PDF documents",
	Long: `pdfworker extracts reading-order text and per-word layout features from PDF
documents. It runs as a worker speaking a JSON message protocol over stdio or
websocket, or directly on files from the command line.

Character maps and standard fonts the documents need are requested from the
worker host, or read from --cmap-dir and --font-dir.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		display.ErrorMsg(err.Error())
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ~/.pdfworker/config.yaml)")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error, disabled)")
	flags.String("cmap-dir", "", "directory of built-in character maps")
	flags.String("font-dir", "", "directory of standard font files")

	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("resources.cmap_dir", flags.Lookup("cmap-dir"))
	_ = viper.BindPFlag("resources.font_dir", flags.Lookup("font-dir"))
}

// loadConfig reads the config file and environment, then sets up logging.
// Flags override both.
func loadConfig(cmd *cobra.Command, _ []string) error {
	config.SetDefaults(viper.GetViper())
	config.BindEnv(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".pdfworker"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// the default config file is optional, an explicit one is not
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		return fmt.Errorf("set up logger: %w", err)
	}
	appCfg = cfg

	if used := viper.ConfigFileUsed(); used != "" {
		log := logger.WithComponent("cmd")
		log.Debug().Str("file", used).Str("command", cmd.Name()).Msg("config loaded")
	}
	return nil
}
