package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/use-agent/sitecheck/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect sitecheck configuration",
	Long: `Inspect the effective configuration and site profile.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (SITECHECK_*)
3. Config file (~/.sitecheck/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective server configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		cfg.Auth.APIKeys = redact(cfg.Auth.APIKeys)
		if cfg.Webhook.Secret != "" {
			cfg.Webhook.Secret = "***"
		}

		if f := viper.ConfigFileUsed(); f != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Configuration file: %s\n\n", f)
		}
		return printYAML(cmd, cfg)
	},
}

var configProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the effective site profile (keywords and thresholds)",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.LoadProfile(loadConfig().ProfilePath)
		if err != nil {
			return err
		}
		return printYAML(cmd, p)
	},
}

func printYAML(cmd *cobra.Command, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func redact(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		if len(k) > 4 {
			out[i] = k[:4] + "***"
		} else {
			out[i] = "***"
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configProfileCmd)
}
