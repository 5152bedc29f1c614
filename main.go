package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nstehr/warren/warren-core/agent"
	"github.com/nstehr/warren/warren-core/config"
	"github.com/nstehr/warren/warren-core/ipc"
	"github.com/nstehr/warren/warren-core/memory"
	"github.com/nstehr/warren/warren-core/persistence"
	"github.com/nstehr/warren/warren-core/telemetry"
)

const banner = `
██╗    ██╗ █████╗ ██████╗ ██████╗ ███████╗███╗   ██╗
██║    ██║██╔══██╗██╔══██╗██╔══██╗██╔════╝████╗  ██║
██║ █╗ ██║███████║██████╔╝██████╔╝█████╗  ██╔██╗ ██║
██║███╗██║██╔══██║██╔══██╗██╔══██╗██╔══╝  ██║╚██╗██║
╚███╔███╔╝██║  ██║██║  ██║██║  ██║███████╗██║ ╚████║
 ╚══╝╚══╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═══╝

Colony Economy Sidecar`

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults if empty)")
	socketPath := flag.String("socket", "", "override the domain socket path")
	dbPath := flag.String("db", "", "override the SQLite memory database path")
	telemetryAddr := flag.String("telemetry", "", "override the telemetry listen address")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	fmt.Println(banner)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *socketPath != "" {
		cfg.Socket = *socketPath
	}
	if *dbPath != "" {
		cfg.Database = *dbPath
	}
	if *telemetryAddr != "" {
		cfg.Telemetry = *telemetryAddr
	}

	reg, err := cfg.Registry()
	if err != nil {
		slog.Error("invalid role configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("starting warren", "socket", cfg.Socket, "database", cfg.Database, "telemetry", cfg.Telemetry)

	opts := agent.Options{
		Config: cfg,
		Roles:  reg,
		Store:  &memory.MemStore{},
		Stats:  telemetry.NewRecorder(reg),
	}

	if cfg.Database != "" {
		db, err := persistence.Open(cfg.Database)
		if err != nil {
			slog.Error("failed to open memory database", "path", cfg.Database, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		opts.Store = db
	}

	if cfg.JournalDir != "" {
		journal := telemetry.NewJournal(cfg.JournalDir, "warren")
		defer journal.Close()
		opts.Journal = journal
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry != "" {
		hub := telemetry.NewHub()
		opts.Hub = hub
		srv := &http.Server{
			Addr:              cfg.Telemetry,
			Handler:           telemetry.Mux(hub, opts.Stats),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("telemetry server failed", "addr", cfg.Telemetry, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		slog.Info("telemetry listening", "addr", cfg.Telemetry)
	}

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(cfg.Socket); err != nil {
		slog.Error("failed to clean up socket", "path", cfg.Socket, "error", err)
		os.Exit(1)
	}

	listener, err := net.Listen("unix", cfg.Socket)
	if err != nil {
		slog.Error("failed to listen on socket", "path", cfg.Socket, "error", err)
		os.Exit(1)
	}
	defer listener.Close()
	defer os.Remove(cfg.Socket)

	slog.Info("listening on domain socket", "path", cfg.Socket)

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
					slog.Error("failed to accept connection", "error", err)
					continue
				}
			}
			slog.Info("new connection accepted")
			go handleConn(conn, opts)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
}

func handleConn(conn net.Conn, opts agent.Options) {
	c := ipc.NewConnection(conn, nil)
	a := agent.New(c, c.Session, opts)
	c.RegisterHandler(ipc.TypeHello, func(env ipc.Envelope) (*ipc.Envelope, error) {
		resp, err := a.HandleHello(env)
		c.Player = a.Player
		return resp, err
	})
	c.RegisterHandler(ipc.TypeWorldState, a.HandleWorldState)
	c.ReadLoop()
}
