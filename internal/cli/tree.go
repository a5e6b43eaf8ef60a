package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/xsheet/pkg/errors"
	"github.com/matzehuels/xsheet/pkg/io"
	"github.com/matzehuels/xsheet/pkg/pipeline"
	"github.com/matzehuels/xsheet/pkg/render/tree"
	"github.com/matzehuels/xsheet/pkg/walker"
)

// Tree output formats.
const (
	treeDOT = "dot"
	treeSVG = "svg"
	treePNG = "png"
)

// treeCommand creates the tree command, which draws the walker's decision
// for every layer of a document.
func (c *CLI) treeCommand() *cobra.Command {
	opts := pipeline.DefaultOptions()
	var (
		output   string
		format   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "tree [document]",
		Short: "Draw the layer tree and which layers would be exported",
		Long: `Tree renders the document's layer tree as a Graphviz diagram. Every node is
colored by the walker's decision: exported, merged into a group, static,
hidden, reference or skipped.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocument,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadOptions(cmd, &opts); err != nil {
				return err
			}
			if format == "" {
				format = formatFromPath(output)
			}
			return c.runTree(args[0], opts, output, format, detailed)
		},
	}

	addSelectionFlags(cmd.Flags(), &opts)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: dot (default), svg, png")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show kind, keyframes and color label")
	return cmd
}

func (c *CLI) runTree(input string, opts pipeline.Options, output, format string, detailed bool) error {
	doc, err := io.ImportDocument(input)
	if err != nil {
		return err
	}

	res := walker.Walk(doc, opts.PlanOptions().Filter)
	dot := tree.ToDOT(doc, res, tree.Options{Detailed: detailed})

	var data []byte
	switch format {
	case treeDOT:
		data = []byte(dot)
	case treeSVG:
		data, err = tree.RenderSVG(dot)
	case treePNG:
		data, err = tree.RenderPNG(dot)
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "invalid tree format: %q (must be dot, svg or png)", format)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "render tree")
	}

	if output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	c.Logger.Debug("wrote tree", "file", output, "nodes", len(res.Decisions), "animated", len(res.Animated()))
	printSuccess("Tree written")
	printFile(output)
	return nil
}

// formatFromPath picks the tree format from an output file extension.
func formatFromPath(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case treeSVG:
		return treeSVG
	case treePNG:
		return treePNG
	}
	return treeDOT
}
