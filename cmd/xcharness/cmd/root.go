package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "xcharness",
	Short: "CI harness for iOS test runs",
	Long: `xcharness supervises long-lived xcodebuild test invocations: it enforces
idle and hard timeouts with process-group-wide cleanup, records benchmark
output, and injects host environment variables into .xctestrun files.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.xcharness.yaml)")
}

// initConfig binds the environment overrides. These are read once at startup;
// they let CI enable sampling or swap the sampler without touching scripts.
func initConfig() {
	viper.AutomaticEnv()

	viper.BindEnv("sample_on_timeout", "XCHARNESS_SAMPLE_ON_TIMEOUT")
	viper.BindEnv("sample_seconds", "XCHARNESS_SAMPLE_SECONDS")
	viper.BindEnv("sample_tool", "XCHARNESS_SAMPLE_TOOL")
}
