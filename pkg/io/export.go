package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/xsheet/pkg/plan"
)

// WritePlanJSON encodes an export plan as indented JSON and writes it to w.
// Unit constituents are not included; units reference their source layers
// by path.
func WritePlanJSON(p *plan.Plan, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportPlanJSON writes an export plan to a JSON file at path.
func ExportPlanJSON(p *plan.Plan, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WritePlanJSON(p, f)
}
