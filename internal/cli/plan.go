package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/xsheet/pkg/exposure"
	"github.com/matzehuels/xsheet/pkg/io"
	xplan "github.com/matzehuels/xsheet/pkg/plan"
	"github.com/matzehuels/xsheet/pkg/pipeline"
)

// planCommand creates the plan command, which previews an export.
func (c *CLI) planCommand() *cobra.Command {
	opts := pipeline.DefaultOptions()
	var (
		asJSON bool
		output string
		files  bool
	)

	cmd := &cobra.Command{
		Use:               "plan [document]",
		Short:             "Show the units, cels and files an export would produce",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocument,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadOptions(cmd, &opts); err != nil {
				return err
			}
			p, err := c.runPlan(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			switch {
			case output != "":
				if err := io.ExportPlanJSON(p, output); err != nil {
					return err
				}
				printSuccess("Plan written")
				printFile(output)
			case asJSON:
				return io.WritePlanJSON(p, os.Stdout)
			default:
				fmt.Println(renderPlanTable(p))
				if files {
					for _, f := range p.Files() {
						printFile(f)
					}
				}
				printStats(p.Stats(), true)
			}
			return nil
		},
	}

	addPlanFlags(cmd.Flags(), &opts)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the plan as JSON to a file")
	cmd.Flags().BoolVar(&files, "files", false, "list every output file")
	return cmd
}

func (c *CLI) runPlan(ctx context.Context, input string, opts pipeline.Options) (*xplan.Plan, error) {
	doc, err := io.ImportDocument(input)
	if err != nil {
		return nil, err
	}
	return c.newRunner().Plan(withLogger(ctx, c.Logger), doc, opts)
}

// renderPlanTable lays out one row per unit.
func renderPlanTable(p *xplan.Plan) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, 0, len(p.Units))
	for _, u := range p.Units {
		kind := "static"
		if u.Animated {
			kind = "track"
			if u.Flattened {
				kind = "group"
			}
		}
		images := "1"
		exposureCol := "—"
		if u.Animated {
			images = strconv.Itoa(len(u.Rendered()))
			exposureCol = exposureSummary(u)
		}
		rows = append(rows, []string{u.Name, kind, u.SourcePath, images, exposureCol})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Unit", "Kind", "Source", "Images", "Exposure").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			switch col {
			case 0:
				return base.Foreground(colorCyan)
			case 3:
				return base.Foreground(colorWhite).Align(lipgloss.Right)
			default:
				return base.Foreground(colorGray)
			}
		})

	title := StyleTitle.Render(p.SheetFile) + StyleDim.Render(fmt.Sprintf("  frames %s (%d)", p.Span, p.Duration()))
	return title + "\n" + t.Render()
}

// maxRuns caps the exposure column of the plan table.
const maxRuns = 8

// exposureSummary renders held cels as number:length runs, e.g. "1:4 2:7 3:1".
// Stop frames show as "x".
func exposureSummary(u *xplan.Unit) string {
	changes := exposure.Changes(u.Exposure)
	var b strings.Builder
	for i, ch := range changes {
		if i == maxRuns {
			fmt.Fprintf(&b, " … +%d", len(changes)-maxRuns)
			break
		}
		end := u.Span.End + 1
		if i+1 < len(changes) {
			end = changes[i+1].Frame
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		label := "x"
		if cel, ok := u.Cel(ch.Cel); ok && !cel.Blank {
			label = strconv.Itoa(cel.Number)
		}
		fmt.Fprintf(&b, "%s:%d", label, end-ch.Frame)
	}
	return b.String()
}
