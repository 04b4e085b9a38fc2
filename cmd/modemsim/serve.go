package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/config"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/constellation"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/metrics"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/publish"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/server"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/sim"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/store"
)

// backends holds the optional outputs shared by sweep and serve.
type backends struct {
	db        *store.DB
	publisher *publish.MQTTPublisher
}

func openBackends(cfg *config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Database.Path != "" {
		db, err := store.NewDB(store.Config{Path: cfg.Database.Path}, log.Default())
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		b.db = db
	}
	if cfg.MQTT.Enabled {
		pub, err := publish.NewMQTTPublisher(cfg.MQTT)
		if err != nil {
			// Publishing is optional; the sweep still runs without a broker.
			log.Printf("[mqtt] disabled: %v", err)
		} else {
			b.publisher = pub
		}
	}
	return b, nil
}

func (b *backends) Close() {
	if b.publisher != nil {
		b.publisher.Close()
	}
	if b.db != nil {
		b.db.Close()
	}
}

func newSweepCmd() *cobra.Command {
	var (
		message string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Measure BER against SNR for the configured schemes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("message") {
				cfg.Sweep.Message = message
			}
			if cmd.Flags().Changed("workers") {
				cfg.Sweep.Workers = workers
			}
			params, err := cfg.SweepParameters()
			if err != nil {
				return err
			}
			eval, err := sim.NewEvaluator(params, tableProvider(cfg))
			if err != nil {
				return err
			}
			eval.OnProgress = func(p sim.Progress) {
				log.Printf("[sweep] %d/%d %s at %d dB: BER %.4f", p.Done, p.Total, p.Point.Scheme, p.Point.SNR, p.Point.BER)
			}

			b, err := openBackends(cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			res, err := eval.Run(ctx, []byte(cfg.Sweep.Message))
			if err != nil {
				return err
			}
			fmt.Print(formatTable(res))

			runID := ""
			if b.db != nil {
				run, err := b.db.Runs().Save(res)
				if err != nil {
					return err
				}
				runID = run.ID
				fmt.Printf("saved run %s\n", runID)
			}
			if b.publisher != nil {
				if runID == "" {
					runID = "local"
				}
				b.publisher.PublishResult(runID, res)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "Message to transmit (overrides sweep.message)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of parallel workers")
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			b, err := openBackends(cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			opts := server.Options{
				Tables:  tableProvider(cfg),
				Workers: cfg.Sweep.Workers,
			}
			if b.db != nil {
				opts.Runs = b.db.Runs()
			}
			if cfg.Metrics.Enabled {
				opts.Metrics = metrics.New()
			}
			if b.publisher != nil {
				if opts.Metrics != nil {
					b.publisher.OnFailure = func(error) { opts.Metrics.PublishFailed() }
				}
				opts.Publisher = b.publisher
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			srv := server.NewServer(cfg.Server.Addr, server.NewHandlers(opts), cfg.Metrics.Path)
			return srv.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func newTablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Manage QAM constellation table assets",
	}

	var (
		dir    string
		orders string
	)
	export := &cobra.Command{
		Use:   "export",
		Short: "Write Gray-coded QAM tables as YAML assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := parseOrders(orders)
			if err != nil {
				return err
			}
			paths, err := constellation.Export(dir, list)
			for _, p := range paths {
				fmt.Println(p)
			}
			return err
		},
	}
	export.Flags().StringVarP(&dir, "dir", "d", "tables", "Output directory")
	export.Flags().StringVar(&orders, "orders", "4,6,8,10,12", "Comma-separated bits per symbol to export")
	cmd.AddCommand(export)
	return cmd
}

func parseOrders(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid order %q: %w", f, err)
		}
		out = append(out, n)
	}
	return out, nil
}
