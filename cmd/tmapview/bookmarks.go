package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/recera/tmapview/internal/storage"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3b82f6"))

func newBookmarksCommand(a *app) *cobra.Command {
	var datasetName string

	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "List, show and delete saved selections",
	}
	cmd.PersistentFlags().StringVarP(&datasetName, "dataset", "d", "", "Dataset name (the served file's base name)")

	withStore := func(fn func(m *storage.Manager) error) error {
		m := storage.NewManager(a.cfg.Storage.StorageManagerConfig(), a.log)
		if err := m.Connect(); err != nil {
			return err
		}
		defer m.Close()
		return fn(m)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List bookmarks, optionally of one dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(m *storage.Manager) error {
				marks, err := m.List(datasetName)
				if err != nil {
					return err
				}
				if len(marks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no bookmarks")
					return nil
				}
				t := table.New().
					Border(lipgloss.NormalBorder()).
					StyleFunc(func(row, col int) lipgloss.Style {
						if row == table.HeaderRow {
							return headerStyle
						}
						return lipgloss.NewStyle()
					}).
					Headers("DATASET", "NAME", "SERIES", "VERTICES", "UPDATED")
				for _, b := range marks {
					indices, err := b.IndexList()
					if err != nil {
						return err
					}
					t.Row(b.Dataset, b.Name, b.Series, strconv.Itoa(len(indices)), b.UpdatedAt.Format("2006-01-02 15:04"))
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.String())
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Print one bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(m *storage.Manager) error {
				b, err := m.Load(datasetName, args[0])
				if err != nil {
					return err
				}
				indices, err := b.IndexList()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "name     %s\n", b.Name)
				fmt.Fprintf(out, "dataset  %s\n", b.Dataset)
				fmt.Fprintf(out, "series   %s\n", b.Series)
				fmt.Fprintf(out, "indices  %s\n", joinInts(indices))
				fmt.Fprintf(out, "zoom     %g\n", b.Zoom)
				if p, ok := b.LookAtPoint(); ok {
					fmt.Fprintf(out, "look-at  %g %g %g\n", p[0], p[1], p[2])
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete one bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(m *storage.Manager) error {
				if err := m.Delete(datasetName, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	})

	return cmd
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}
