package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphshift/pkg/format/mermaid"
	"github.com/matzehuels/graphshift/pkg/pipeline"
	"github.com/matzehuels/graphshift/pkg/render"
)

// renderCommand creates the render command for rasterizing a plan.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		fromStr   string
		formatStr string
		output    string
		graphName string
		noCache   bool
		refresh   bool
	)

	cmd := &cobra.Command{
		Use:   "render [input]",
		Short: "Rasterize a plan to SVG or PNG via Graphviz",
		Long: `Rasterize an execution plan to an image.

The plan is first converted to canonical DOT, then rendered in-process with
Graphviz. Any of the three grammars works as input; the source grammar is
inferred from the file extension or set with --from.

Rendered images are cached alongside conversion results.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, text, err := readSource(args[0], fromStr)
			if err != nil {
				return err
			}

			imgFormat, err := render.ParseImageFormat(formatStr)
			if err != nil {
				return err
			}
			if output == "" {
				base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				output = base + "." + string(imgFormat)
			}

			runner, err := c.newRunner(cmd, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			prog := newProgress(c.Logger)
			img, cacheHit, err := runner.Render(cmd.Context(), pipeline.Options{
				SourceFormat: source,
				SourceText:   text,
				GraphName:    graphName,
				Orientation:  mermaid.Orientation(c.Config.Orientation),
				Refresh:      refresh,
				Logger:       c.Logger,
			}, imgFormat)
			if err != nil {
				return err
			}

			if err := os.WriteFile(output, img, 0644); err != nil {
				return err
			}
			suffix := ""
			if cacheHit {
				suffix = " (cached)"
			}
			prog.done(fmt.Sprintf("Wrote %s%s", output, suffix))
			return nil
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "source grammar: taskseq, dot, mermaid (inferred from extension)")
	cmd.Flags().StringVarP(&formatStr, "format", "f", c.Config.Render.Format, "image format: svg, png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (defaults to the input name with the image extension)")
	cmd.Flags().StringVar(&graphName, "name", c.Config.GraphName, "graph name for the DOT header")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even on a cache hit")

	return cmd
}
