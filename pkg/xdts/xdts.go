// Package xdts assembles and writes XDTS exposure sheets.
//
// An XDTS file is a single header line followed by a JSON document. The sheet
// holds one time table whose cell field carries one track per animated export
// unit. Tracks list only the frames at which the shown cel changes; the
// receiving application holds each value until the next listed frame.
//
//	exchangeDigitalTimeSheet Save Data
//	{"header":{"cut":"1","scene":"1"},"timeTables":[...],"version":5}
//
// Frame numbers are relative to the start of the export span. A track ends
// with [NullCell] at the sheet duration unless its last cel is a stop frame.
package xdts

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/matzehuels/xsheet/pkg/exposure"
	"github.com/matzehuels/xsheet/pkg/plan"
)

const (
	// Header is the mandatory first line of an XDTS file.
	Header = "exchangeDigitalTimeSheet Save Data"
	// Version is the XDTS schema version written.
	Version = 5
	// NullCell clears a track: nothing is shown from that frame on.
	NullCell = "SYMBOL_NULL_CELL"
	// CellField is the field ID of the cel (drawing) field.
	CellField = 0
	// DefaultTableName is the name of the single time table.
	DefaultTableName = "sheet1"
)

// Options configures the sheet header.
type Options struct {
	Cut   string
	Scene string
	// TableName defaults to [DefaultTableName].
	TableName string
}

// DefaultOptions returns cut 1, scene 1.
func DefaultOptions() Options {
	return Options{Cut: "1", Scene: "1", TableName: DefaultTableName}
}

// Sheet is the JSON body of an XDTS file.
type Sheet struct {
	Header     SheetHeader `json:"header"`
	TimeTables []TimeTable `json:"timeTables"`
	Version    int         `json:"version"`
}

// SheetHeader identifies the cut.
type SheetHeader struct {
	Cut   string `json:"cut"`
	Scene string `json:"scene"`
}

// TimeTable is one timing table of the sheet.
type TimeTable struct {
	Duration         int               `json:"duration"`
	Name             string            `json:"name"`
	Fields           []Field           `json:"fields"`
	TimeTableHeaders []TimeTableHeader `json:"timeTableHeaders"`
}

// Field groups the tracks of one field kind.
type Field struct {
	FieldID int     `json:"fieldId"`
	Tracks  []Track `json:"tracks"`
}

// Track is the timing of one export unit.
type Track struct {
	TrackNo int     `json:"trackNo"`
	Frames  []Frame `json:"frames"`
}

// Frame sets the value shown from Frame on.
type Frame struct {
	Frame int    `json:"frame"`
	Data  []Data `json:"data"`
}

// Data holds the value of a frame.
type Data struct {
	ID     int      `json:"id"`
	Values []string `json:"values"`
}

// TimeTableHeader names the tracks of a field, indexed by track number.
type TimeTableHeader struct {
	FieldID int      `json:"fieldId"`
	Names   []string `json:"names"`
}

// Build assembles the sheet for the animated units of p. Static units are
// never part of a sheet.
func Build(p *plan.Plan, opts Options) *Sheet {
	if opts.Cut == "" {
		opts.Cut = "1"
	}
	if opts.Scene == "" {
		opts.Scene = "1"
	}
	if opts.TableName == "" {
		opts.TableName = DefaultTableName
	}

	duration := p.Duration()
	field := Field{FieldID: CellField, Tracks: []Track{}}
	header := TimeTableHeader{FieldID: CellField, Names: []string{}}

	for i, u := range p.Animated() {
		field.Tracks = append(field.Tracks, buildTrack(i, u, p.Span.Start, duration))
		header.Names = append(header.Names, u.Name)
	}

	return &Sheet{
		Header: SheetHeader{Cut: opts.Cut, Scene: opts.Scene},
		TimeTables: []TimeTable{{
			Duration:         duration,
			Name:             opts.TableName,
			Fields:           []Field{field},
			TimeTableHeaders: []TimeTableHeader{header},
		}},
		Version: Version,
	}
}

func buildTrack(no int, u *plan.Unit, start, duration int) Track {
	t := Track{TrackNo: no, Frames: []Frame{}}
	last := ""
	for _, e := range exposure.Changes(u.Exposure) {
		v := cellValue(u, e.Cel)
		if v == last {
			continue
		}
		t.Frames = append(t.Frames, newFrame(e.Frame-start, v))
		last = v
	}
	if last != NullCell {
		t.Frames = append(t.Frames, newFrame(duration, NullCell))
	}
	return t
}

func cellValue(u *plan.Unit, index int) string {
	c, ok := u.Cel(index)
	if !ok || c.Blank {
		return NullCell
	}
	return strconv.Itoa(c.Number)
}

func newFrame(frame int, value string) Frame {
	return Frame{Frame: frame, Data: []Data{{ID: 0, Values: []string{value}}}}
}

// Values expands the track into the value shown at each of duration frames.
// Frames after a terminating [NullCell] report NullCell.
func (t Track) Values(duration int) []string {
	out := make([]string, duration)
	cur := NullCell
	next := 0
	for f := range duration {
		for next < len(t.Frames) && t.Frames[next].Frame <= f {
			if d := t.Frames[next].Data; len(d) > 0 && len(d[0].Values) > 0 {
				cur = d[0].Values[0]
			}
			next++
		}
		out[f] = cur
	}
	return out
}

// Encode writes the header line followed by the JSON body to w.
func (s *Sheet) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return bw.Flush()
}

// WriteFile writes the sheet to path. The file is written to a temporary
// sibling first and renamed, so readers never observe a partial sheet.
func (s *Sheet) WriteFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".xdts-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := s.Encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
