package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MrtnvM/render-engine/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	log      logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bduictl",
	Short: "Reference host for the backend-driven UI render engine core",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = buildLogger(logLevel)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.bduictl.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug|info|warn|error")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".bduictl")
		viper.AddConfigPath("$HOME")
	}
	viper.SetEnvPrefix("BDUICTL")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func buildLogger(level string) logging.Logger {
	l := logging.New()
	switch level {
	case "debug":
		l.SetLevel(logging.Debug)
	case "warn":
		l.SetLevel(logging.Warn)
	case "error":
		l.SetLevel(logging.Error)
	default:
		l.SetLevel(logging.Info)
	}
	return l
}

func fatalf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
