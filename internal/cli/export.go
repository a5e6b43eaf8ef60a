package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/xsheet/pkg/io"
	"github.com/matzehuels/xsheet/pkg/pipeline"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	opts := pipeline.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "export [document]",
		Short: "Export cel images and an XDTS exposure sheet",
		Long: `Export reads a document snapshot (.json, .yaml or .toml), renders one image
per drawing of every exported layer and writes <export-dir>/<name>/<name>.xdts.

Layers with keyframes are exported as animated tracks. Animated groups are
merged into one track unless --flatten-groups=false. Hidden and reference
layers are skipped unless included explicitly.`,
		Example: `  xsheet export walk.json -o out
  xsheet export walk.yaml -o out --full-range --format jpg --quality 90
  xsheet export walk.json -o out --renderer command \
    --render-command 'krita-export {document} {layers} {frame}'`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocument,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadOptions(cmd, &opts); err != nil {
				return err
			}
			return c.runExport(cmd.Context(), args[0], opts)
		},
	}

	addExportFlags(cmd.Flags(), &opts)
	return cmd
}

// runExport loads the document and runs the full pipeline.
func (c *CLI) runExport(ctx context.Context, input string, opts pipeline.Options) error {
	ctx = withLogger(ctx, c.Logger)
	prog := newProgress(c.Logger)

	doc, err := io.ImportDocument(input)
	if err != nil {
		return err
	}
	c.Logger.Debug("loaded document", "name", doc.Name, "layers", doc.Count(), "clip", doc.Clip, "playback", doc.Playback)

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Exporting %s...", doc.Name))
	opts.Progress = func(done, total int) {
		spinner.SetMessage("Rendering %s (%d/%d)", doc.Name, done, total)
	}
	spinner.Start()

	res, err := c.newRunner().Execute(ctx, doc, opts)
	if err != nil {
		spinner.StopWithError("Export failed")
		return err
	}
	spinner.Stop()

	for _, u := range res.Plan.Animated() {
		if len(u.Rendered()) == 0 {
			printWarning("%s shows only stop frames in %s; no images written", u.Name, res.Plan.Span)
		}
	}

	if res.DryRun {
		printSuccess("Planned %s", res.Plan.Name)
		printDetail("Dry run: nothing was written to %s", res.Root)
		printStats(res.Stats.Stats, true)
		printNewline()
		printNextStep("List files", "xsheet plan "+input)
		return nil
	}

	prog.done("Exported " + res.Plan.Name)
	printSuccess("Export complete")
	printFile(res.SheetPath)
	for _, u := range res.Plan.Units {
		printFile(filepath.Join(res.Root, filepath.FromSlash(unitPath(u.Dir, u.File))))
	}
	printStats(res.Stats.Stats, false)
	return nil
}

// unitPath returns the folder of an animated unit or the file of a static one.
func unitPath(dir, file string) string {
	if dir != "" {
		return dir + "/"
	}
	return file
}
