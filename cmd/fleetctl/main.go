package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	v1 "github.com/zdunecki/graphfleet/api/v1"
	"github.com/zdunecki/graphfleet/api/v1/objects"
	"github.com/zdunecki/graphfleet/api/v1/sdk"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
)

const defaultAPIURL = "http://localhost:7790"

func main() {
	v := viper.New()
	v.SetEnvPrefix("FLEETCTL")
	v.AutomaticEnv()
	v.SetDefault("api_url", defaultAPIURL)
	v.SetDefault("timeout", sdk.DefaultTimeout)

	var rootCmd = &cobra.Command{
		Use:          "fleetctl",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("api-url", "", "graphfleet api url, FLEETCTL_API_URL")
	rootCmd.PersistentFlags().Duration("timeout", 0, "request timeout, scale-up waits for readiness probes")
	v.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))
	v.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	client := func() (v1.V1, error) {
		return sdk.NewWithOpts(
			sdk.WithHTTPAddr(v.GetString("api_url")),
			sdk.WithTimeout(v.GetDuration("timeout")),
			sdk.WithRetry(time.Second*10),
		)
	}

	var cmdWorkers = &cobra.Command{
		Use:   "workers",
		Short: "List workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}

			status, _ := cmd.Flags().GetString("status")

			workers, err := c.Workers().All(metav1.WorkerStatus(status))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tADDRESS\tSERVICE")
			for _, worker := range workers {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", worker.ID, worker.Status, worker.Addr(), worker.ServiceName)
			}

			return w.Flush()
		},
	}
	cmdWorkers.Flags().String("status", "", "filter by status")

	var cmdScaleUp = &cobra.Command{
		Use:   "scale-up N",
		Short: "Spawn up to N workers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}

			c, err := client()
			if err != nil {
				return err
			}

			resp, err := c.Workers().ScaleUp(count)
			if err != nil {
				return err
			}

			ids := make([]int, 0, len(resp.Workers))
			for id := range resp.Workers {
				ids = append(ids, id)
			}
			sort.Ints(ids)

			for _, id := range ids {
				fmt.Printf("%d\t%s\n", id, resp.Workers[id])
			}
			fmt.Printf("%d of %d workers active\n", len(ids), count)

			return nil
		},
	}

	var cmdScaleDown = &cobra.Command{
		Use:   "scale-down ID...",
		Short: "Delete workers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			c, err := client()
			if err != nil {
				return err
			}

			return c.Workers().ScaleDown(ids)
		},
	}

	var cmdDelete = &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}

			c, err := client()
			if err != nil {
				return err
			}

			return c.Workers().Delete(id)
		},
	}

	var cmdFleet = &cobra.Command{
		Use:   "fleet",
		Short: "Show fleet size and capacity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}

			fleet, err := c.Fleet()
			if err != nil {
				return err
			}

			fmt.Printf("workers: %d/%d\n", fleet.Count, fleet.MaxWorkers)

			return nil
		},
	}

	var cmdPick = &cobra.Command{
		Use:   "pick",
		Short: "Take the next active worker and count it as in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}

			w, err := c.Workers().Pick()
			if err != nil {
				return err
			}

			fmt.Printf("%d\t%s\n", w.ID, w.Addr())

			return nil
		},
	}

	uses := func(use string, short string, call func(v1.Workers, int) (*objects.ResponseUses, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " ID",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return err
				}

				c, err := client()
				if err != nil {
					return err
				}

				resp, err := call(c.Workers(), id)
				if err != nil {
					return err
				}

				fmt.Printf("worker %d uses: %d\n", resp.ID, resp.Uses)

				return nil
			},
		}
	}

	cmdAcquire := uses("acquire", "Mark a worker as in use", v1.Workers.Acquire)
	cmdRelease := uses("release", "Drop one use of a worker, idle workers may be removed", v1.Workers.Release)

	rootCmd.AddCommand(cmdWorkers, cmdScaleUp, cmdScaleDown, cmdDelete, cmdFleet, cmdPick, cmdAcquire, cmdRelease)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))

	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid worker id %q: %w", a, err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
