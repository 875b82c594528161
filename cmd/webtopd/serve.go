package main

import (
	"context"
	"time"

	"github.com/convox/logger"
	"github.com/rusenback/webtopd/internal/backup"
	"github.com/rusenback/webtopd/internal/config"
	"github.com/rusenback/webtopd/internal/docker"
	"github.com/rusenback/webtopd/internal/executor"
	"github.com/rusenback/webtopd/internal/fleet"
	"github.com/rusenback/webtopd/internal/lifecycle"
	"github.com/rusenback/webtopd/internal/registry"
	"github.com/rusenback/webtopd/internal/server"
	"github.com/rusenback/webtopd/internal/stats"
	"github.com/rusenback/webtopd/internal/storage"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	f := serveCmd.Flags()
	f.String("host", "0.0.0.0", "listen host")
	f.Int("port", 8090, "listen port")
	f.String("script", "./webtop.sh", "lifecycle script, split with shell quoting")
	f.String("workdir", ".", "working directory of the script")
	f.Duration("poll-interval", 5*time.Second, "push interval of /ws")
	f.String("docker-host", "unix:///var/run/docker.sock", "docker daemon address")
	f.Bool("history", true, "record stats history")

	bind(serveCmd, "web.host", "host")
	bind(serveCmd, "web.port", "port")
	bind(serveCmd, "script", "script")
	bind(serveCmd, "workdir", "workdir")
	bind(serveCmd, "poll_interval", "poll-interval")
	bind(serveCmd, "docker.host", "docker-host")
	bind(serveCmd, "history.enabled", "history")
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logger.New("ns=webtopd")

	dcfg := docker.DefaultConfig()
	dcfg.Host = cfg.DockerHost
	dcfg.CertDir = cfg.Resolve(cfg.DockerCertDir)

	runtime, err := docker.NewClient(ctx, dcfg)
	if err != nil {
		return err
	}
	defer runtime.Close()

	exec, err := executor.New(cfg.Script, cfg.Workdir, cfg.CommandTimeout, log.At("executor"))
	if err != nil {
		return err
	}

	store := &registry.Store{Path: cfg.Resolve(cfg.Registry)}
	catalog := &backup.Catalog{Dir: cfg.Resolve(cfg.BackupDir)}

	var cloud backup.CloudUploader = &backup.ScriptUploader{Exec: exec}
	if cfg.CloudBucket != "" {
		up, err := backup.NewS3Uploader(ctx, cfg.CloudBucket, cfg.CloudRegion, cfg.CloudPrefix, catalog, log.At("s3"))
		if err != nil {
			return err
		}
		cloud = up
	}

	svc := &fleet.Service{
		Registry: store,
		Runtime:  runtime,
		Host:     &stats.Probe{Sample: cfg.CPUSample},
		Aggregator: &stats.Aggregator{
			Source:  runtime,
			Prefix:  cfg.Prefix,
			Workers: cfg.StatsWorkers,
			Logger:  log.At("stats"),
		},
		Prefix:   cfg.Prefix,
		DiskPath: cfg.Workdir,
		Logger:   log,
	}

	opts := server.Options{
		Fleet: svc,
		Lifecycle: &lifecycle.Manager{
			Exec:     exec,
			Runtime:  runtime,
			Registry: store,
			Catalog:  catalog,
			Cloud:    cloud,
			Prefix:   cfg.Prefix,
			Logger:   log.At("lifecycle"),
		},
		Interval: cfg.PollInterval,
		User:     cfg.User,
		Pass:     cfg.Pass,
		Logger:   log,
	}

	if cfg.HistoryEnabled {
		history, err := storage.NewStorage(cfg.Resolve(cfg.HistoryPath), cfg.HistoryRetention, log.At("history"))
		if err != nil {
			return err
		}
		defer history.Close()

		opts.History = history

		recorder := &fleet.Loop{Source: svc, Interval: cfg.PollInterval, Logger: log.At("recorder")}
		stop := recorder.Go(ctx, &fleet.Recorder{History: history})
		defer stop()
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}

	return srv.ListenAndServe(ctx, cfg.Addr())
}
