// Package cli holds the sitecheck command tree: serve runs the HTTP API,
// check validates one page from the terminal.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/use-agent/sitecheck/api/handler"
	"github.com/use-agent/sitecheck/config"
)

// ErrChecksFailed is returned by check when the page failed validation.
var ErrChecksFailed = errors.New("one or more checks failed")

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sitecheck",
	Short: "Sitecheck - structural and content validation of institutional web pages",
	Long: `Sitecheck renders a web page and checks that its regions are where
visitors expect them: header with the institution's name, navigation,
footer with legal links and a current copyright, event and news sections,
search, contact details, accessible images and forms.

Every check passes, fails or is skipped with a reason.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an Execute error to a process exit code: 2 when checks
// failed, 1 for any other error.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrChecksFailed):
		return 2
	default:
		return 1
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sitecheck v%s\n", handler.Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.sitecheck/config.yaml)")
	rootCmd.PersistentFlags().String("profile", "", "site profile file (YAML, JSON or TOML)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: json or text")

	_ = viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and SITECHECK_* environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home + "/.sitecheck")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("SITECHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}

// loadConfig layers flags and the config file over the environment
// defaults from config.Load. Keys share their names with the SITECHECK_*
// variables, so each source spells a setting the same way.
func loadConfig() *config.Config {
	cfg := config.Load()

	if viper.IsSet("host") {
		cfg.Server.Host = viper.GetString("host")
	}
	if viper.IsSet("port") {
		cfg.Server.Port = viper.GetInt("port")
	}
	if viper.IsSet("mode") {
		cfg.Server.Mode = viper.GetString("mode")
	}
	if viper.IsSet("profile") {
		cfg.ProfilePath = viper.GetString("profile")
	}
	if viper.IsSet("log_level") {
		cfg.Log.Level = viper.GetString("log_level")
	}
	if viper.IsSet("log_format") {
		cfg.Log.Format = viper.GetString("log_format")
	}
	if viper.IsSet("max_pages") {
		cfg.Browser.MaxPages = viper.GetInt("max_pages")
	}
	if viper.IsSet("headless") {
		cfg.Browser.Headless = viper.GetBool("headless")
	}
	if viper.IsSet("no_sandbox") {
		cfg.Browser.NoSandbox = viper.GetBool("no_sandbox")
	}
	if viper.IsSet("multi_engine") {
		cfg.Engine.EnableMultiEngine = viper.GetBool("multi_engine")
	}
	if viper.IsSet("api_keys") {
		cfg.Auth.APIKeys = viper.GetStringSlice("api_keys")
	}
	if viper.IsSet("webhook_secret") {
		cfg.Webhook.Secret = viper.GetString("webhook_secret")
	}
	return cfg
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	// stdout carries reports from check; logs go to stderr.
	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(os.Stderr, opts)
	} else {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(h))
}
