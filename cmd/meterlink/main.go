package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sahasra-iot/meterlink/config"
)

var (
	version = "dev"

	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "meterlink",
		Short: "DLMS/COSEM meter reader for optically coupled tariff meters",
		Long: `meterlink talks DLMS/COSEM over an optical serial head: HDLC link
setup, password association and OBIS register reads, with optional
scheduled collection and MQTT publishing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "configuration file (YAML)")

	rootCmd.AddCommand(newReadCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newCodesCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

func newLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.ZapLevel())
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
