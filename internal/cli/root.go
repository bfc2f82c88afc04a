// Package cli implements the oversight command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	baseURL string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "oversight",
	Short: "Human approval gate for sensitive automated actions",
	Long: `oversight suspends sensitive automated actions until a human signs off.

An agent submits an approval request; approvers decide over HTTP or the CLI;
the caller resumes with the operation result on approval or with a refusal
on rejection or timeout. Every terminal verdict leaves an audit record.

Quick start:
  oversight serve                   Run the approval engine with its HTTP API
  oversight pending                 List requests awaiting a decision
  oversight decide <id> approve     Approve a pending request
  oversight audit                   Show the audit trail`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.oversight/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8711", "engine base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newPendingCmd())
	rootCmd.AddCommand(newDecideCmd())
	rootCmd.AddCommand(newAuditCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".oversight")
		viper.AddConfigPath("$HOME/.oversight")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("OVERSIGHT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
	if viper.IsSet("url") && !rootCmd.PersistentFlags().Changed("url") {
		baseURL = viper.GetString("url")
	}
}
