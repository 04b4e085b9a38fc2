package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/channel"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/modem"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/sim"
)

func newModulateCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "modulate [flags] message",
		Short: "Modulate a message to a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			link, err := cfg.LinkParameters()
			if err != nil {
				return err
			}
			mod, err := modem.NewModulator(link, tableProvider(cfg), modem.Options{IQDiagnostics: cfg.Link.IQDiagnostics})
			if err != nil {
				return err
			}

			tx, frame := mod.ModulateMessage([]byte(args[0]))
			if err := mod.Save(output, tx.Signal); err != nil {
				return err
			}
			fmt.Printf("%s: %d payload bits padded to %d, %d symbols, %d samples -> %s\n",
				link, frame.PayloadBits, frame.PaddedBits, len(tx.Symbols), len(tx.Signal), output)
			if d := tx.Diagnostics; d != nil {
				fmt.Printf("pulse delay %.4g s, %d impulses\n", d.PulseDelay, len(d.Impulses))
			}
			return nil
		},
	}
	addLinkFlags(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "modulated.wav", "Output WAV file")
	return cmd
}

func newDemodulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demodulate [flags] input.wav",
		Short: "Demodulate a WAV file written by modulate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			link, err := cfg.LinkParameters()
			if err != nil {
				return err
			}
			rate, signal, err := modem.ReadSignal(args[0])
			if err != nil {
				return err
			}
			if math.Round(rate) != math.Round(link.SamplingRate()) {
				return fmt.Errorf("%s is sampled at %g Hz, link %s expects %g Hz",
					args[0], rate, link, link.SamplingRate())
			}

			demapper, err := modem.NewDemapper(link.Scheme(), tableProvider(cfg))
			if err != nil {
				return err
			}
			rec := demapper.Demap(modem.NewDemodulator(link).DemodulateReal(signal))
			fmt.Println(rec.Text)
			return nil
		},
	}
	addLinkFlags(cmd.Flags())
	return cmd
}

func newSimulateCmd() *cobra.Command {
	var (
		snr  float64
		seed uint64
	)
	cmd := &cobra.Command{
		Use:   "simulate [flags] message",
		Short: "Send a message through the configured channel and report bit errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			link, err := cfg.LinkParameters()
			if err != nil {
				return err
			}
			specs := cfg.Channel
			if cmd.Flags().Changed("snr") {
				specs = append([]channel.Spec{{Type: "awgn", SNR: &snr}}, specs...)
			}
			chain, err := channel.Build(specs, link.SamplingRate(), seed)
			if err != nil {
				return err
			}

			out, err := sim.Simulate(link, tableProvider(cfg), []byte(args[0]), chain,
				modem.Options{IQDiagnostics: cfg.Link.IQDiagnostics})
			if err != nil {
				return err
			}
			fmt.Printf("link:     %s\n", link)
			fmt.Printf("channel:  %s\n", out.Chain)
			fmt.Printf("received: %s\n", out.Recovered.Text)
			fmt.Printf("BER:      %.4f (%d/%d bits)\n", out.BER, out.BitErrors, out.Bits)
			return nil
		},
	}
	addLinkFlags(cmd.Flags())
	cmd.Flags().Float64Var(&snr, "snr", 0, "Add AWGN at this SNR in dB ahead of configured impairments")
	cmd.Flags().Uint64Var(&seed, "seed", sim.DefaultSeed, "Seed for stochastic impairments")
	return cmd
}

// formatTable renders a sweep as one row per SNR and one column per scheme.
func formatTable(res *sim.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%8s", "SNR(dB)")
	for _, s := range res.Config.Schemes {
		fmt.Fprintf(&b, " %9s", s)
	}
	b.WriteByte('\n')

	series := make([][]sim.Point, len(res.Config.Schemes))
	for i, s := range res.Config.Schemes {
		series[i] = res.Series(s)
	}
	for row, snr := range res.Config.SNRs() {
		fmt.Fprintf(&b, "%8d", snr)
		for i := range series {
			fmt.Fprintf(&b, " %9.4f", series[i][row].BER)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
