package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/config"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/constellation"
)

var (
	configFile string

	scheme  string
	bitRate float64
	carrier float64
)

var rootCmd = &cobra.Command{
	Use:           "modemsim",
	Short:         "Simulate a single-carrier RRC modem over impaired channels",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML configuration file")

	rootCmd.AddCommand(
		newModulateCmd(),
		newDemodulateCmd(),
		newSimulateCmd(),
		newSweepCmd(),
		newServeCmd(),
		newTablesCmd(),
	)
}

// addLinkFlags registers the flags that override the link section.
func addLinkFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&scheme, "scheme", "m", "", "Modulation scheme (BPSK, QPSK, QAM16 ... QAM4096)")
	fs.Float64VarP(&bitRate, "bit-rate", "b", 0, "Bit rate in bits per second")
	fs.Float64VarP(&carrier, "carrier", "f", 0, "Carrier frequency in Hz")
}

// loadConfig reads the configuration file, or the defaults without one, and
// applies link flags that were set on the command line.
func loadConfig(fs *pflag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.LoadConfig(configFile); err != nil {
			return nil, err
		}
	}
	if fs.Changed("scheme") {
		cfg.Link.Scheme = scheme
	}
	if fs.Changed("bit-rate") {
		cfg.Link.BitRate = bitRate
	}
	if fs.Changed("carrier") {
		cfg.Link.CarrierFrequency = carrier
	}
	return cfg, cfg.Validate()
}

func tableProvider(cfg *config.Config) constellation.Provider {
	if cfg.Tables.Dir == "" {
		return constellation.NewBuiltin()
	}
	return constellation.NewAssetDir(cfg.Tables.Dir)
}

func main() {
	log.SetFlags(log.LstdFlags)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
