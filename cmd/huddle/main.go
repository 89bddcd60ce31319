package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kmorse/huddle/internal/api"
	"github.com/kmorse/huddle/internal/app"
	"github.com/kmorse/huddle/internal/credential"
	"github.com/kmorse/huddle/internal/model"
	"github.com/kmorse/huddle/internal/session"
	"github.com/kmorse/huddle/internal/store"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version", "-v":
			fmt.Println("huddle " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "logout":
			return runLogout()
		}
	}

	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if base := os.Getenv("HUDDLE_API_URL"); base != "" {
		cfg.Server.BaseURL = base
	}

	dbPath, err := databasePath()
	if err != nil {
		return err
	}
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close() //nolint:errcheck

	ring, err := credential.Open()
	if err != nil {
		return fmt.Errorf("open keyring: %w", err)
	}

	timeout := time.Duration(cfg.Server.TimeoutSec) * time.Second
	client := api.New(cfg.Server.BaseURL, "", timeout)

	sess, err := session.NewStore(ring, st, client)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	root := app.New(cfg, client, st, sess)
	p := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// runLogout clears the stored session without starting the UI.
func runLogout() error {
	ring, err := credential.Open()
	if err != nil {
		return fmt.Errorf("open keyring: %w", err)
	}

	dbPath, err := databasePath()
	if err != nil {
		return err
	}
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close() //nolint:errcheck

	client := api.New("", "", 0)
	sess, err := session.NewStore(ring, st, client)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if !sess.IsAuthenticated() {
		fmt.Println("Already logged out.")
		return nil
	}
	if err := sess.Logout(context.Background()); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	fmt.Println("Logged out.")
	return nil
}

// databasePath returns ~/.local/share/huddle/huddle.db, creating the
// directory when missing.
func databasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".local", "share", "huddle")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return filepath.Join(dir, "huddle.db"), nil
}

func printHelp() {
	fmt.Println(`huddle - league dashboard for your terminal

Usage:
  huddle            start the dashboard
  huddle logout     clear the stored session
  huddle version    print the version

Environment:
  HUDDLE_API_URL    override the configured server URL`)
}
