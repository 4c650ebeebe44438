// Package cmd defines the flow command-line interface.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thedjpetersen/flow-like-water/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "flow",
	Short: "Task orchestration engine for declarative workflows",
	Long: `Flow runs workflows defined in YAML manifests: ordered task groups,
nested to any depth, with per-task retries, completion conditions, and
conditional branch jumps between tasks.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/flow/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("FLOW")
	// Replace dots with underscores for nested keys in env vars
	// e.g., FLOW_ENGINE_DEFAULT_RETRIES for engine.default_retries
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
