package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mpham/mailboard/internal/api"
	"github.com/mpham/mailboard/internal/app"
	"github.com/mpham/mailboard/internal/credential"
	"github.com/mpham/mailboard/internal/imap"
	"github.com/mpham/mailboard/internal/model"
	"github.com/mpham/mailboard/internal/session"
	"github.com/mpham/mailboard/internal/store"
)

func main() {
	configPathFlag := flag.String("config", "", "Path to YAML configuration file (default: ~/.config/mailboard/config.yaml)")
	serverFlag := flag.String("server", "", "Mailboard backend URL (overrides config; empty uses standalone IMAP mode)")
	logPathFlag := flag.String("log", "", "Path to the debug log file (default: ~/.config/mailboard/mailboard.log)")
	flag.Parse()

	configPath := *configPathFlag
	if configPath == "" {
		configPath = model.DefaultConfigPath()
	}

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *serverFlag != "" {
		cfg.Server.URL = *serverFlag
	}

	// The terminal owns stdout, so logs go to a file.
	logFile, err := openLogFile(*logPathFlag)
	if err != nil {
		log.Fatalf("opening log file: %v", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	services, sess, cleanup, err := buildServices(cfg)
	if err != nil {
		log.Fatalf("initializing services: %v", err)
	}
	defer cleanup()

	m := app.New(services, sess, cfg.Display.PageSize)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Printf("program exited with error: %v", err)
		fmt.Fprintf(os.Stderr, "mailboard: %v\n", err)
		os.Exit(1)
	}
}

// buildServices wires either the REST backend or the standalone IMAP
// service, depending on whether a server URL is configured.
func buildServices(cfg *model.AppConfig) (app.Services, *session.Session, func(), error) {
	if !cfg.Standalone() {
		sess := session.New()
		client := api.NewClient(cfg.Server.URL, sess)
		return app.Services{
			Auth:      api.NewAuthClient(client),
			Mailboxes: api.NewMailboxClient(client),
			Emails:    api.NewEmailClient(client),
			Columns:   api.NewColumnClient(client),
		}, sess, func() {}, nil
	}

	if cfg.IMAP.Host == "" || cfg.IMAP.Username == "" {
		return app.Services{}, nil, nil, fmt.Errorf(
			"standalone mode needs imap.host and imap.username in %s", model.DefaultConfigPath())
	}

	password, err := credential.Get(credential.KeyIMAPPassword)
	if err != nil {
		password = os.Getenv("MAILBOARD_IMAP_PASSWORD")
		if password == "" {
			return app.Services{}, nil, nil, fmt.Errorf(
				"no IMAP password in the keyring or MAILBOARD_IMAP_PASSWORD")
		}
	}

	cache, err := store.NewSQLiteStore(cachePath())
	if err != nil {
		return app.Services{}, nil, nil, fmt.Errorf("opening cache: %w", err)
	}

	client := imap.NewClient(cfg.IMAP.Host, cfg.IMAP.Port, cfg.IMAP.Username, password, cfg.IMAP.TLS)
	smtp := imap.SMTPConfig{
		Host:     cfg.IMAP.SMTPHost,
		Port:     cfg.IMAP.SMTPPort,
		Username: cfg.IMAP.Username,
		Password: password,
		TLS:      cfg.IMAP.TLS,
	}

	svc := imap.NewService(client, smtp, cache, cfg.IMAP.Username, cfg.Display.PageSize)

	return app.Services{
		Auth:      nil, // unused without a backend
		Mailboxes: svc,
		Emails:    svc,
		Columns:   svc,
	}, nil, func() { _ = cache.Close() }, nil
}

// cachePath returns the SQLite cache location under the user config dir.
func cachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mailboard.db"
	}
	dir := filepath.Join(home, ".config", "mailboard")
	_ = os.MkdirAll(dir, 0o755)
	return filepath.Join(dir, "mailboard.db")
}

// openLogFile opens (or creates) the debug log.
func openLogFile(path string) (*os.File, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			path = "mailboard.log"
		} else {
			dir := filepath.Join(home, ".config", "mailboard")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "mailboard.log")
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
