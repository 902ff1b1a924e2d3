package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bittoy/corpuspipe/preload"
	"github.com/spf13/cobra"
)

var (
	flagPreloadSocket  string
	flagPreloadWorkers int
)

var preloadCmd = &cobra.Command{
	Use:   "preload",
	Short: "Manage the preloader process",
}

var preloadStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the preloader server, warming each configured processor",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(false)
		if err != nil {
			return err
		}
		defer e.close()

		cfgPath := filepath.Join(e.dirs.Data, "preload.toml")
		cfg, err := preload.LoadConfig(cfgPath)
		if err != nil {
			return err
		}
		sock := flagPreloadSocket
		if sock == "" {
			sock = cfg.SocketPath
		}
		if sock == "" {
			return userErr(fmt.Errorf("no socket path: pass --socket or set socket_path in %s", cfgPath))
		}
		if flagPreloadWorkers > 0 {
			for i := range cfg.Processors {
				cfg.Processors[i].Workers = flagPreloadWorkers
			}
		}

		srv, err := preload.NewServer(sock, cfg, e.reg)
		if err != nil {
			return err
		}
		if err := srv.Listen(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return srv.Serve(ctx)
	},
}

var preloadStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Explain how to stop a running preloader; sends no signal itself (send SIGTERM to its process)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return userErr(fmt.Errorf("preload stop: send SIGTERM to the running preload process; there is no separate control channel"))
	},
}

func init() {
	preloadStartCmd.Flags().StringVar(&flagPreloadSocket, "socket", "", "socket path (overrides preload.toml's socket_path)")
	preloadStartCmd.Flags().IntVar(&flagPreloadWorkers, "processes", 0, "override every processor's worker count")
	preloadCmd.AddCommand(preloadStartCmd, preloadStopCmd)
	rootCmd.AddCommand(preloadCmd)
}
