package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphshift/pkg/errors"
	"github.com/matzehuels/graphshift/pkg/format"
	"github.com/matzehuels/graphshift/pkg/format/mermaid"
	"github.com/matzehuels/graphshift/pkg/pipeline"
)

// convertCommand creates the convert command for grammar-to-grammar
// translation.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		fromStr     string
		toStr       string
		output      string
		graphName   string
		orientation string
		noCache     bool
		refresh     bool
	)

	cmd := &cobra.Command{
		Use:   "convert [input]",
		Short: "Translate a plan between the task-block, DOT, and flowchart grammars",
		Long: `Translate an execution plan from one grammar into another.

The input is a file path or "-" for stdin. The source grammar is inferred
from the file extension (.seq, .dot, .gv, .mmd) and can be overridden with
--from; stdin always requires --from. The target comes from --to, or from
the extension of --output when --to is omitted.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, text, err := readSource(args[0], fromStr)
			if err != nil {
				return err
			}
			target, err := resolveTarget(toStr, output)
			if err != nil {
				return err
			}
			return c.runConvert(cmd, convertParams{
				source:      source,
				target:      target,
				text:        text,
				output:      output,
				graphName:   graphName,
				orientation: orientation,
				noCache:     noCache,
				refresh:     refresh,
			})
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "source grammar: taskseq, dot, mermaid (inferred from extension)")
	cmd.Flags().StringVar(&toStr, "to", "", "target grammar: taskseq, dot, mermaid (inferred from --output extension)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout when omitted)")
	cmd.Flags().StringVar(&graphName, "name", c.Config.GraphName, "graph name for the DOT header")
	cmd.Flags().StringVar(&orientation, "orientation", c.Config.Orientation, "flowchart direction: TD, LR")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even on a cache hit")

	return cmd
}

type convertParams struct {
	source      format.Format
	target      format.Format
	text        string
	output      string
	graphName   string
	orientation string
	noCache     bool
	refresh     bool
}

func (c *CLI) runConvert(cmd *cobra.Command, p convertParams) error {
	runner, err := c.newRunner(cmd, p.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	bundle, err := runner.Execute(cmd.Context(), pipeline.Options{
		SourceFormat: p.source,
		SourceText:   p.text,
		GraphName:    p.graphName,
		Orientation:  mermaid.Orientation(p.orientation),
		Refresh:      p.refresh,
		Logger:       c.Logger,
	})
	if err != nil {
		return err
	}

	text, err := bundle.Text(p.target)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Converted %s to %s", p.source, p.target))

	if p.output == "" || p.output == "-" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}
	return os.WriteFile(p.output, []byte(text), 0644)
}

// readSource loads the input text and determines its grammar. A "-" input
// reads stdin and requires an explicit --from.
func readSource(input, fromStr string) (format.Format, string, error) {
	if input == "-" {
		if fromStr == "" {
			return "", "", errors.New(errors.ErrCodeInvalidInput,
				"--from is required when reading from stdin")
		}
		f, err := format.ParseFormat(fromStr)
		if err != nil {
			return "", "", err
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", err
		}
		return f, string(data), nil
	}

	f, err := sourceFormat(input, fromStr)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return "", "", err
	}
	return f, string(data), nil
}

// sourceFormat resolves the source grammar from --from or the file
// extension.
func sourceFormat(path, fromStr string) (format.Format, error) {
	if fromStr != "" {
		return format.ParseFormat(fromStr)
	}
	return format.FromExtension(filepath.Ext(path))
}

// resolveTarget resolves the target grammar from --to or the output file
// extension.
func resolveTarget(toStr, output string) (format.Format, error) {
	if toStr != "" {
		return format.ParseFormat(toStr)
	}
	if output != "" && output != "-" {
		return format.FromExtension(filepath.Ext(output))
	}
	return "", errors.New(errors.ErrCodeInvalidInput,
		"target grammar required: pass --to or --output with a known extension")
}
