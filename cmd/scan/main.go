package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"bookshelf/internal/config"
	"bookshelf/internal/scanner"
	"bookshelf/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	ctl := scanner.New(scanner.Options{
		Constrained: cfg.Constrained,
		Cooldown:    cfg.Cooldown,
		ScanTimeout: cfg.ScanTimeout,
	})
	client := tui.NewClient(cfg.ServerURL)
	model := tui.NewModel(context.Background(), ctl, client, logger)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := program.Run(); err != nil {
		logger.Error("program exited", "err", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func openLogger(cfg config.Config) (*log.Logger, func(), error) {
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, nil, err
	}
	path := cfg.ClientLogPath()
	file, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := log.NewWithOptions(file, log.Options{
		ReportTimestamp: true,
		Prefix:          "scan",
	})
	return logger, func() { _ = file.Close() }, nil
}
