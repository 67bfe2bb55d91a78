// Command pvec is a small driver around the pvec library, useful for
// poking at a vector's log from a shell and for rough throughput checks.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"go.nesv.ca/pvec"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var (
		cfgPath string
		dir     string
	)

	openVector := func() (*pvec.Vector, error) {
		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return nil, err
		}
		if dir != "" {
			cfg.Dir = dir
		}
		interval, err := cfg.syncInterval()
		if err != nil {
			return nil, err
		}
		return pvec.Open(cfg.Dir,
			pvec.SyncInterval(interval),
			pvec.OnSyncError(func(err error) {
				logger.Error("durability barrier failed", "error", err)
				os.Exit(1)
			}),
		)
	}

	rootCmd := &cobra.Command{
		Use:           "pvec",
		Short:         "Persistent vector CLI",
		Long:          "pvec drives a persistent vector stored in a directory: append entries, read them back, erase by position.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&dir, "dir", "", "data directory (overrides the config file)")

	appendCmd := &cobra.Command{
		Use:   "append [data]",
		Short: "Append an entry; reads stdin when no argument is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			if len(args) == 1 {
				data = []byte(args[0])
			} else {
				p, err := io.ReadAll(io.LimitReader(os.Stdin, pvec.MaxDataSize+1))
				if err != nil {
					return err
				}
				data = p
			}

			v, err := openVector()
			if err != nil {
				return err
			}
			defer v.Close()

			id, err := v.Append(data)
			if err != nil {
				return err
			}
			fmt.Printf("appended entry id=%d position=%d\n", id, v.Len()-1)
			return nil
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <position>",
		Short: "Print the entry at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}

			v, err := openVector()
			if err != nil {
				return err
			}
			defer v.Close()

			p, err := v.At(i)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(p)
			return err
		},
	}

	eraseCmd := &cobra.Command{
		Use:   "erase <position>",
		Short: "Erase the entry at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}

			v, err := openVector()
			if err != nil {
				return err
			}
			defer v.Close()

			if err := v.Erase(i); err != nil {
				return err
			}
			fmt.Printf("erased position %d, %d entries remain\n", i, v.Len())
			return nil
		},
	}

	lenCmd := &cobra.Command{
		Use:   "len",
		Short: "Print the number of entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openVector()
			if err != nil {
				return err
			}
			defer v.Close()

			fmt.Println(v.Len())
			return nil
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench <count>",
		Short: "Append count entries and report the elapsed time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}

			v, err := openVector()
			if err != nil {
				return err
			}
			defer v.Close()

			start := time.Now()
			for i := 0; i < n; i++ {
				if _, err := v.Append([]byte("loop " + strconv.Itoa(i))); err != nil {
					return err
				}
			}
			elapsed := time.Since(start)
			logger.Info("bench complete",
				"appends", n,
				"elapsed", elapsed,
				"per_op", elapsed/time.Duration(max(n, 1)),
			)
			return nil
		},
	}

	rootCmd.AddCommand(appendCmd, getCmd, eraseCmd, lenCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
