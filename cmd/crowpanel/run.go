package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tphummel/crowpanel/internal/logging"
	"github.com/tphummel/crowpanel/internal/metrics"
	"github.com/tphummel/crowpanel/internal/models"
	"github.com/tphummel/crowpanel/internal/tui"
	"github.com/tphummel/crowpanel/internal/ui"
)

// activation is the handoff printed for the connection layer. Unlike
// MachineProfile's own JSON form it carries the WiFi password, which joining
// the network needs.
type activation struct {
	Slot       int                   `json:"slot"`
	Name       string                `json:"name"`
	Connection models.ConnectionType `json:"connection_type"`
	SSID       string                `json:"ssid"`
	Password   string                `json:"password"`
	RemoteHost string                `json:"remote_host"`
	RemotePort uint16                `json:"remote_port"`
}

func newActivation(slot int, p models.MachineProfile) activation {
	return activation{
		Slot:       slot,
		Name:       p.Name,
		Connection: p.Connection,
		SSID:       p.SSID,
		Password:   p.Password,
		RemoteHost: p.RemoteHost,
		RemotePort: p.RemotePort,
	}
}

// stdoutHost remembers the activated profile until the terminal is released.
type stdoutHost struct {
	chosen *activation
}

func (h *stdoutHost) Activate(slot int, p models.MachineProfile) {
	a := newActivation(slot, p)
	h.chosen = &a
}

func (h *stdoutHost) report(w io.Writer) error {
	if h.chosen == nil {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(h.chosen)
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the machine selection screen",
		Long: "Open the machine selection screen in the terminal. The chosen profile,\n" +
			"including its WiFi password, is printed as JSON on stdout after the screen\n" +
			"closes.",
		Args: cobra.NoArgs,
		RunE: runSession,
	}
	cmd.Flags().String("status-addr", "", "also serve the status API on this address")
	return cmd
}

func runSession(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logFile, err := logging.OpenFile(cfg.LogFile())
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger, err := logging.New(logFile, cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	database, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}()

	if addr, _ := cmd.Flags().GetString("status-addr"); addr != "" {
		if cfg.HTTP.Token == "" {
			return errors.New("http.token is required with --status-addr")
		}
		srv := newStatusServer(addr, cfg.HTTP.Token, database, store, logger)
		go func() {
			logger.Info("status API listening", "addr", addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status API error", "error", err)
			}
		}()
		defer func() {
			if err := shutdown(srv); err != nil {
				logger.Error("status API shutdown", "error", err)
			}
		}()
	}

	host := &stdoutHost{}
	screen := ui.NewScreen(store, host,
		ui.WithLogger(logger),
		ui.WithObserver(metrics.Transitions{}),
	)
	if err := screen.Show(); err != nil {
		return fmt.Errorf("show selection screen: %w", err)
	}
	defer screen.Hide()

	p := tea.NewProgram(tui.New(screen),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(cmd.Context()),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal UI: %w", err)
	}
	return host.report(cmd.OutOrStdout())
}
