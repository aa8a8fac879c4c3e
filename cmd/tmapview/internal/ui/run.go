package ui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/recera/tmapview/pkg/dataset"
	"github.com/recera/tmapview/pkg/viewer"
)

// Run starts the interactive inspector over a dataset
func Run(d *dataset.Dataset, opts *viewer.Options) error {
	if !isatty() {
		return fmt.Errorf("not running in a terminal")
	}

	m, err := NewModel(d, opts)
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// isatty checks if we're running in a terminal
func isatty() bool {
	fileInfo, _ := os.Stdout.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
