package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/betbot/nftmarket/internal/app"
	"github.com/betbot/nftmarket/internal/tui"
)

func runTUI(a *app.App) error {
	m := tui.New(a.Storefront, tui.Options{AutoConnect: true, OpTimeout: 2*a.Config.API.Timeout + 10*time.Second})
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
