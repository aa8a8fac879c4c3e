package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/recera/tmapview/cmd/tmapview/internal/config"
	"github.com/recera/tmapview/cmd/tmapview/internal/ui"
	"github.com/recera/tmapview/pkg/dataset"
	"github.com/recera/tmapview/pkg/host"
	"github.com/recera/tmapview/pkg/viewer"
)

func newInspectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [dataset]",
		Short: "Explore a dataset in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.datasetPath(args)
			if err != nil {
				return err
			}
			d, err := dataset.Load(path)
			if err != nil {
				return err
			}
			return ui.Run(d, a.viewerOptions())
		},
	}
}

// openScene loads a dataset into a headless scene for one-shot queries
func (a *app) openScene(args []string) (*host.Scene, error) {
	path, err := a.datasetPath(args)
	if err != nil {
		return nil, err
	}
	d, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	return host.NewScene(d.Series, a.cfg.Serve.Width, a.cfg.Serve.Height, viewer.NopAnnotator{}, a.viewerOptions())
}

func newBoundsCommand(a *app) *cobra.Command {
	var series string
	var indices []int

	cmd := &cobra.Command{
		Use:   "bounds [dataset]",
		Short: "Print the bounding box of the scene, a series or some of its vertices",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := a.openScene(args)
			if err != nil {
				return err
			}
			defer sc.Close()

			v := sc.Viewer
			var b viewer.BoundingBox
			switch {
			case series == "":
				b = v.SceneBounds()
			case len(indices) == 0:
				b, err = v.SeriesBounds(viewer.SeriesID(series))
			default:
				b, err = v.Bounds(viewer.SeriesID(series), indices)
			}
			if err != nil {
				return err
			}
			printBounds(cmd.OutOrStdout(), b)
			return nil
		},
	}

	cmd.Flags().StringVarP(&series, "series", "s", "", "Series name (default: whole scene)")
	cmd.Flags().IntSliceVarP(&indices, "indices", "i", nil, "Vertex indices within the series")

	return cmd
}

func printBounds(w io.Writer, b viewer.BoundingBox) {
	fmt.Fprintf(w, "min    %g %g %g\n", b.Min[0], b.Min[1], b.Min[2])
	fmt.Fprintf(w, "max    %g %g %g\n", b.Max[0], b.Max[1], b.Max[2])
	fmt.Fprintf(w, "center %g %g %g\n", b.Center[0], b.Center[1], b.Center[2])
}

func newSearchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search [dataset] <regexp>",
		Short: "Print the vertices whose labels match a case-insensitive regexp",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := args[len(args)-1]
			sc, err := a.openScene(args[:len(args)-1])
			if err != nil {
				return err
			}
			defer sc.Close()

			results, err := sc.Viewer.Search(term)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range results {
				s, _ := sc.Viewer.Series(r.Series)
				for _, i := range r.Indices {
					fmt.Fprintf(out, "%s\t%d\t%s\n", r.Series, i, s.Labels[i])
				}
			}
			if len(results) == 0 {
				fmt.Fprintf(os.Stderr, "no labels match %q\n", term)
			}
			return nil
		},
	}
}

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default " + config.FileName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(config.FileName); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", config.FileName)
			}
			if err := config.Save(config.DefaultConfig(), config.FileName); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", config.FileName)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
