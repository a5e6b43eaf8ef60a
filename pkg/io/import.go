package io

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/xsheet/pkg/document"
	"github.com/matzehuels/xsheet/pkg/errors"
)

// Format is a snapshot serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// DetectFormat maps a file extension to a Format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat,
		"unsupported document format %q (must be .json, .yaml, .yml or .toml)", filepath.Ext(path))
}

type documentFile struct {
	Name     string               `json:"name" yaml:"name" toml:"name"`
	Width    int                  `json:"width" yaml:"width" toml:"width"`
	Height   int                  `json:"height" yaml:"height" toml:"height"`
	Clip     *document.FrameRange `json:"clip" yaml:"clip" toml:"clip"`
	Playback *document.FrameRange `json:"playback" yaml:"playback" toml:"playback"`
	Layers   []layerFile          `json:"layers" yaml:"layers" toml:"layers"`
}

type layerFile struct {
	Name       string         `json:"name" yaml:"name" toml:"name"`
	Kind       string         `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	Visible    *bool          `json:"visible,omitempty" yaml:"visible,omitempty" toml:"visible,omitempty"`
	ColorLabel int            `json:"color_label,omitempty" yaml:"color_label,omitempty" toml:"color_label,omitempty"`
	Opacity    *float64       `json:"opacity,omitempty" yaml:"opacity,omitempty" toml:"opacity,omitempty"`
	Source     string         `json:"source,omitempty" yaml:"source,omitempty" toml:"source,omitempty"`
	Children   []layerFile    `json:"children,omitempty" yaml:"children,omitempty" toml:"children,omitempty"`
	Keyframes  []keyframeFile `json:"keyframes,omitempty" yaml:"keyframes,omitempty" toml:"keyframes,omitempty"`
}

type keyframeFile struct {
	Frame  int    `json:"frame" yaml:"frame" toml:"frame"`
	Source string `json:"source,omitempty" yaml:"source,omitempty" toml:"source,omitempty"`
	Blank  bool   `json:"blank,omitempty" yaml:"blank,omitempty" toml:"blank,omitempty"`
}

// ReadDocument decodes a snapshot in the given format and links it.
//
// Layers default to visible with full opacity. A missing playback range
// defaults to the clip and vice versa; at least one must be present.
//
// ReadDocument returns an INVALID_DOCUMENT error when the data cannot be
// decoded, a layer kind is unknown or the tree violates the invariants
// checked by [document.Document.Link].
func ReadDocument(data []byte, format Format) (*document.Document, error) {
	var f documentFile
	if err := unmarshal(data, format, &f); err != nil {
		return nil, err
	}

	doc := &document.Document{Name: f.Name, Width: f.Width, Height: f.Height}
	switch {
	case f.Clip != nil && f.Playback != nil:
		doc.Clip, doc.Playback = *f.Clip, *f.Playback
	case f.Clip != nil:
		doc.Clip, doc.Playback = *f.Clip, *f.Clip
	case f.Playback != nil:
		doc.Clip, doc.Playback = *f.Playback, *f.Playback
	default:
		return nil, errors.New(errors.ErrCodeInvalidDocument, "document needs a clip or playback range")
	}

	for _, lf := range f.Layers {
		l, err := lf.toLayer()
		if err != nil {
			return nil, err
		}
		doc.Layers = append(doc.Layers, l)
	}

	if err := doc.Link(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "invalid document")
	}
	return doc, nil
}

func unmarshal(data []byte, format Format, v *documentFile) error {
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, v)
	case FormatYAML:
		err = yaml.Unmarshal(data, v)
	case FormatTOML:
		err = toml.Unmarshal(data, v)
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported document format %q", format)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode %s", format)
	}
	return nil
}

func (lf layerFile) toLayer() (*document.Layer, error) {
	kind, err := document.ParseKind(lf.Kind)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "layer %q", lf.Name)
	}
	l := &document.Layer{
		Name:       lf.Name,
		Kind:       kind,
		Visible:    lf.Visible == nil || *lf.Visible,
		ColorLabel: document.ColorLabel(lf.ColorLabel),
		Opacity:    1,
		Source:     lf.Source,
	}
	if lf.Opacity != nil {
		l.Opacity = *lf.Opacity
	}
	if len(lf.Keyframes) > 0 {
		l.Track = &document.Track{Keyframes: make([]document.Keyframe, len(lf.Keyframes))}
		for i, k := range lf.Keyframes {
			l.Track.Keyframes[i] = document.Keyframe{Frame: k.Frame, Source: k.Source, Blank: k.Blank}
		}
	}
	for _, cf := range lf.Children {
		c, err := cf.toLayer()
		if err != nil {
			return nil, err
		}
		l.Children = append(l.Children, c)
	}
	return l, nil
}

// ImportDocument reads the snapshot at path. The format follows the file
// extension, relative cel sources resolve against the file's directory and a
// missing document name defaults to the file name without extension.
func ImportDocument(path string) (*document.Document, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "document not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}

	doc, err := ReadDocument(data, format)
	if err != nil {
		return nil, err
	}
	if abs, err := filepath.Abs(path); err == nil {
		doc.BaseDir = filepath.Dir(abs)
	} else {
		doc.BaseDir = filepath.Dir(path)
	}
	if doc.Name == "" {
		base := filepath.Base(path)
		doc.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return doc, nil
}
