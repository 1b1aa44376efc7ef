package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/obridge/cmd/obridge/internal"
	"github.com/tinyland-inc/obridge/pkg/config"
	"github.com/tinyland-inc/obridge/pkg/logger"
	"github.com/tinyland-inc/obridge/pkg/pipeline"
	"github.com/tinyland-inc/obridge/pkg/platform"
	"github.com/tinyland-inc/obridge/pkg/store"
	"github.com/tinyland-inc/obridge/pkg/transport"
)

func NewServeCommand() *cobra.Command {
	var configPath string
	var debug bool

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Start the event bridge",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return serveCmd(configPath, debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", internal.GetConfigPath(), "Config file path")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

func serveCmd(configPath string, debug bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if debug {
		cfg.Debug = true
	}
	logger.SetDebug(cfg.Debug)

	messageStore, err := store.Open(store.Config{
		Path:        cfg.StoragePath,
		BusyTimeout: 5 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("open message store: %w", err)
	}
	defer messageStore.Close()

	core, err := platform.Dial(cfg.CoreSocket)
	if err != nil {
		return fmt.Errorf("connect client core: %w", err)
	}
	defer core.Close()

	dispatcher := transport.NewDispatcher(cfg.SelfID)
	transports := buildTransports(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for _, t := range transports {
		if err := t.Start(ctx); err != nil {
			return fmt.Errorf("start %s transport: %w", t.Name(), err)
		}
		dispatcher.Register(t)
	}
	// Runs until the bus closes, so queued events drain on shutdown.
	go dispatcher.Run(context.Background())

	pipe := pipeline.New(
		pipeline.Deps{
			Users:     core,
			Contacts:  core,
			Store:     messageStore,
			Formatter: core,
			Emitter:   dispatcher,
		},
		pipeline.Options{
			SelfID:            cfg.SelfID,
			ReportSelfMessage: cfg.ReportSelfMessage,
			Debug:             cfg.Debug,
		},
	)
	core.SetListener(pipe)

	if cfg.Heartbeat.Enabled {
		hb := transport.NewHeartbeat(dispatcher, time.Duration(cfg.Heartbeat.Interval)*time.Second)
		go hb.Run(ctx)
	}

	go func() {
		if err := config.Watch(ctx, configPath, func(fresh *config.Config) {
			pipe.SetReportSelfMessage(fresh.ReportSelfMessage)
			pipe.SetDebug(fresh.Debug)
			logger.SetDebug(fresh.Debug || debug)
		}); err != nil {
			logger.WarnCF("serve", "config watch unavailable", map[string]any{"error": err.Error()})
		}
	}()

	logger.InfoCF("serve", "bridge up", map[string]any{
		"self_id":    cfg.SelfID,
		"transports": len(transports),
	})

	<-ctx.Done()
	logger.InfoC("serve", "shutting down")

	core.Close()
	pipe.Wait()
	dispatcher.Close()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	for _, t := range transports {
		if err := t.Stop(stopCtx); err != nil {
			logger.WarnCF("serve", "transport stop failed", map[string]any{
				"transport": t.Name(), "error": err.Error(),
			})
		}
	}
	return nil
}

func buildTransports(cfg *config.Config) []transport.Transport {
	var transports []transport.Transport
	if cfg.WS.Enabled {
		transports = append(transports,
			transport.NewWSServer(cfg.WS.Host, cfg.WS.Port, cfg.AccessToken, cfg.SelfID))
	}
	if cfg.ReverseWS.Enabled && len(cfg.ReverseWS.URLs) > 0 {
		transports = append(transports,
			transport.NewReverseWS(cfg.ReverseWS.URLs, cfg.AccessToken, cfg.SelfID,
				time.Duration(cfg.ReverseWS.ReconnectInterval)*time.Second))
	}
	if cfg.HTTPPost.Enabled && len(cfg.HTTPPost.URLs) > 0 {
		transports = append(transports,
			transport.NewHTTPPost(cfg.HTTPPost.URLs, cfg.HTTPPost.Secret, cfg.SelfID,
				time.Duration(cfg.HTTPPost.Timeout)*time.Second))
	}
	return transports
}
