package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zdunecki/graphfleet/pkg/config"
)

func main() {
	v := config.New()

	var rootCmd = &cobra.Command{Use: "graphfleet"}

	var cmdServe = &cobra.Command{
		Use:   "serve",
		Short: "Run the worker fleet controller and its admin api",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
				v.SetConfigFile(configFile)
			}

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			if level, _ := cmd.Flags().GetString("log-level"); level != "" {
				lvl, err := log.ParseLevel(level)
				if err != nil {
					return err
				}
				log.SetLevel(lvl)
			}
			if os.Getenv("DEBUG") == "1" {
				log.SetLevel(log.DebugLevel)
			}

			return serve(cmd.Context(), cfg)
		},
	}

	cmdServe.Flags().String("config", "", "config file, graphfleet.yaml in . or /etc/graphfleet by default")
	cmdServe.Flags().String("log-level", "info", "log level")
	cmdServe.Flags().Int("workers", 0, "workers requested on startup")
	cmdServe.Flags().String("max-workers", "", "fleet capacity")
	cmdServe.Flags().String("addr", "", "admin api addr")
	cmdServe.Flags().String("kubeconfig", "", "kubeconfig path, in-cluster config when empty")

	v.BindPFlag("fleet.initial_workers", cmdServe.Flags().Lookup("workers"))
	v.BindPFlag("fleet.max_worker_count", cmdServe.Flags().Lookup("max-workers"))
	v.BindPFlag("api.addr", cmdServe.Flags().Lookup("addr"))
	v.BindPFlag("k8s.kubeconfig", cmdServe.Flags().Lookup("kubeconfig"))

	rootCmd.AddCommand(cmdServe)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}
