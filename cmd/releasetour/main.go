package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/jask/releasetour/internal/api"
	"github.com/jask/releasetour/internal/config"
	"github.com/jask/releasetour/internal/logger"
	"github.com/jask/releasetour/internal/prefs"
	"github.com/jask/releasetour/internal/secrets"
	"github.com/jask/releasetour/internal/service"
	"github.com/jask/releasetour/internal/session"
	"github.com/jask/releasetour/internal/storage"
	"github.com/jask/releasetour/internal/telemetry"
	"github.com/jask/releasetour/internal/tui"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real env vars win.
	_ = godotenv.Load()

	if len(os.Args) > 1 && os.Args[1] == "credentials" {
		if err := credentials(os.Args[2:]); err != nil {
			log.Fatalf("credentials: %v", err)
		}
		return
	}

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	shutdown, err := telemetry.Init(ctx, lg, cfg.Telemetry, version)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			lg.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	if cfg.Storage.Driver == config.DriverRedis && cfg.Storage.RedisPassword == "" {
		cfg.Storage.RedisPassword = storedRedisPassword(lg)
	}
	kv, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer kv.Close()

	p := prefs.New(kv)
	clientID, err := p.ClientID(ctx)
	if err != nil {
		lg.Warn("client id unavailable", "error", err)
	}

	client := api.New(api.Options{
		CatalogURL:       cfg.Catalog.BaseURL,
		ExecutionURL:     cfg.Execution.BaseURL,
		CatalogTimeout:   cfg.Catalog.Timeout,
		ExecutionTimeout: cfg.Execution.Timeout,
		ClientID:         clientID,
		Logger:           lg,
	})

	overlays := service.NewOverlayStore(kv, lg)
	machine := session.New(ctx, session.Deps{
		Cache:          service.NewLessonCache(client, lg),
		Overlays:       overlays,
		Dispatcher:     service.NewDispatcher(client, service.NewVersionResolver(cfg.Tour.DefaultVersion), clockwork.NewRealClock(), lg),
		Versions:       client,
		DefaultVersion: cfg.Tour.DefaultVersion,
		Logger:         lg,
	})

	lg.Info("starting", "version", version, "storage", cfg.Storage.Driver, "catalog", cfg.Catalog.BaseURL)
	prog := tea.NewProgram(tui.New(ctx, tui.Options{
		Machine: machine,
		Prefs:   p,
		Logger:  lg,
		Theme:   cfg.UI.Theme,
	}), tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
	if err := machine.Close(ctx); err != nil {
		lg.Error("saving code on exit failed", "error", err)
		fmt.Fprintf(os.Stderr, "warning: unsaved code could not be written: %v\n", err)
	}
}

func storedRedisPassword(lg *logger.Logger) string {
	store, err := secrets.Default()
	if err != nil {
		return ""
	}
	pw, err := store.Fetch("redis")
	if err != nil && !errors.Is(err, secrets.ErrNotFound) {
		lg.Warn("stored redis password unreadable", "error", err)
	}
	return pw
}

// credentials handles "credentials set <name>" (value read from stdin) and
// "credentials delete <name>".
func credentials(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: releasetour credentials set|delete <name>")
	}
	store, err := secrets.Default()
	if err != nil {
		return err
	}
	switch args[0] {
	case "set":
		fmt.Fprintf(os.Stderr, "%s: ", args[1])
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return err
		}
		return store.Put(args[1], strings.TrimRight(line, "\r\n"))
	case "delete":
		return store.Delete(args[1])
	}
	return fmt.Errorf("unknown action %q", args[0])
}
