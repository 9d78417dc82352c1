package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/nhle/clinicdesk/internal/api"
	"github.com/nhle/clinicdesk/internal/app"
	"github.com/nhle/clinicdesk/internal/credential"
	"github.com/nhle/clinicdesk/internal/logger"
	"github.com/nhle/clinicdesk/internal/model"
	"github.com/nhle/clinicdesk/internal/notify"
	"github.com/nhle/clinicdesk/internal/session"
	"github.com/nhle/clinicdesk/internal/store"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// toastBuffer is how many toasts may queue while the UI is busy.
const toastBuffer = 16

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// invocation is a parsed command line.
type invocation struct {
	command    string
	configPath string
}

// parseArgs reads flags and the optional subcommand.
func parseArgs(args []string, out io.Writer) (invocation, error) {
	fs := pflag.NewFlagSet("clinicdesk", pflag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.StringP("config", "c", model.DefaultConfigPath(), "path to the YAML config file")
	fs.Usage = func() {
		fmt.Fprintln(out, "Usage: clinicdesk [--config path] [run|logout|version]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return invocation{}, err
	}
	if fs.NArg() > 1 {
		return invocation{}, fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}

	inv := invocation{command: "run", configPath: *configPath}
	if fs.NArg() == 1 {
		inv.command = fs.Arg(0)
	}
	switch inv.command {
	case "run", "logout", "version":
		return inv, nil
	default:
		return invocation{}, fmt.Errorf("unknown command %q", inv.command)
	}
}

func run(args []string, out io.Writer) error {
	inv, err := parseArgs(args, out)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	if inv.command == "version" {
		fmt.Fprintln(out, "clinicdesk "+version)
		return nil
	}

	if err := ensureConfig(inv.configPath); err != nil {
		return err
	}
	cfg, err := model.LoadConfig(inv.configPath)
	if err != nil {
		return err
	}

	creds, err := credential.Open(filepath.Dir(inv.configPath))
	if err != nil {
		return err
	}

	if inv.command == "logout" {
		if err := creds.Clear(); err != nil {
			return fmt.Errorf("clearing credentials: %w", err)
		}
		fmt.Fprintln(out, "Signed out.")
		return nil
	}

	return runTUI(cfg, creds)
}

// ensureConfig writes the default configuration on first run so users
// have a file to edit.
func ensureConfig(path string) error {
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return model.SaveConfig(path, model.DefaultConfig())
}

func runTUI(cfg *model.AppConfig, creds *credential.Store) error {
	log, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	db, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	sessionID := uuid.New().String()
	log = log.With(zap.String("session", sessionID))
	log.Info("starting", zap.String("version", version), zap.String("api", cfg.API.BaseURL))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := api.NewClient(cfg.API.BaseURL, creds, api.WithTimeout(cfg.RequestTimeout()))
	sess := session.NewStore()
	toasts := notify.NewChannel(toastBuffer)

	poller := notify.New(sess, client, toasts,
		notify.WithInterval(cfg.PollInterval()),
		notify.WithAdminRole(cfg.Notifications.AdminRole),
		notify.WithLogger(log.Named("notify")),
		notify.WithRecorder(store.NewRecorder(db, sessionID)),
	)
	defer poller.Stop()

	m := app.New(ctx, app.Deps{
		Config:      cfg,
		Credentials: creds,
		Session:     sess,
		API:         client,
		Poller:      poller,
		Toasts:      toasts.C(),
		Store:       db,
		Logger:      log,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
