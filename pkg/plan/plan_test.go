package plan

import (
	"slices"
	"testing"

	"github.com/matzehuels/xsheet/pkg/document"
	xerrors "github.com/matzehuels/xsheet/pkg/errors"
)

func newDoc(t *testing.T, span document.FrameRange, layers ...*document.Layer) *document.Document {
	t.Helper()
	doc := &document.Document{
		Name:     "Shot",
		Clip:     document.FrameRange{Start: 0, End: 47},
		Playback: span,
		Layers:   layers,
	}
	if err := doc.Link(); err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	return doc
}

func unitNames(units []*Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Name
	}
	return out
}

func TestBuildSingleLayer(t *testing.T) {
	doc := newDoc(t, document.FrameRange{Start: 1, End: 12}, document.NewPaint("Line", 1, 5, 12))

	p, err := Build(doc, DefaultOptions())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p.SheetFile != "Shot.xdts" {
		t.Errorf("SheetFile = %q, want Shot.xdts", p.SheetFile)
	}
	if p.Duration() != 12 {
		t.Errorf("Duration() = %d, want 12", p.Duration())
	}

	u := p.Units[0]
	if len(u.Exposure) != 12 {
		t.Errorf("exposure entries = %d, want 12", len(u.Exposure))
	}
	want := []string{"Shot.xdts", "Line/Line_0001.png", "Line/Line_0002.png", "Line/Line_0003.png"}
	if got := p.Files(); !slices.Equal(got, want) {
		t.Errorf("Files() = %v, want %v", got, want)
	}
	for i, c := range u.Cels {
		if c.Frame != []int{1, 5, 12}[i] {
			t.Errorf("cel %d renders frame %d", i, c.Frame)
		}
	}
}

func TestBuildFlattenedGroup(t *testing.T) {
	doc := newDoc(t, document.FrameRange{Start: 0, End: 11},
		document.NewGroup("Char",
			document.NewPaint("Line", 1, 3),
			document.NewPaint("Color", 1, 2, 6),
		),
	)

	p, err := Build(doc, DefaultOptions())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(p.Units) != 1 {
		t.Fatalf("units = %v, want [Char]", unitNames(p.Units))
	}
	u := p.Units[0]
	if !u.Flattened || u.Name != "Char" {
		t.Errorf("unit = %+v, want flattened Char", u)
	}
	if !slices.Equal(u.Keyframes, []int{1, 2, 3, 6}) {
		t.Errorf("keyframes = %v, want [1 2 3 6]", u.Keyframes)
	}
	if got := len(u.Rendered()); got != 4 {
		t.Errorf("rendered = %d, want 4", got)
	}
	// Frame 0 precedes the first keyframe and holds cel 0.
	if u.Exposure[0].Cel != 0 {
		t.Errorf("frame 0 cel = %d, want 0", u.Exposure[0].Cel)
	}
}

func TestBuildStaticUnits(t *testing.T) {
	doc := newDoc(t, document.FrameRange{Start: 0, End: 5},
		document.NewPaint("Line", 0, 3),
		document.NewPaint("BG"),
	)

	opts := DefaultOptions()
	p, err := Build(doc, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Static()) != 0 {
		t.Errorf("static units without include-static: %v", unitNames(p.Static()))
	}

	opts.Filter.IncludeStatic = true
	p, err = Build(doc, opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := unitNames(p.Animated()); !slices.Equal(got, []string{"Line"}) {
		t.Errorf("Animated() = %v", got)
	}
	static := p.Static()
	if len(static) != 1 || static[0].File != "BG.png" {
		t.Fatalf("Static() = %+v, want BG.png", static)
	}
	if static[0].Exposure != nil || static[0].Cels != nil {
		t.Error("static unit must not carry exposure")
	}
	s := p.Stats()
	if s.Tracks != 1 || s.Statics != 1 || s.Images != 3 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestBuildNoExportableLayers(t *testing.T) {
	hidden := document.NewPaint("Hidden", 0, 2)
	hidden.Visible = false
	doc := newDoc(t, document.FrameRange{Start: 0, End: 5}, hidden, document.NewPaint("BG"))

	opts := DefaultOptions()
	opts.Filter.IncludeStatic = true
	_, err := Build(doc, opts)
	if !xerrors.Is(err, xerrors.ErrCodeNoExportableLayers) {
		t.Errorf("Build() error = %v, want NO_EXPORTABLE_LAYERS", err)
	}
}

func TestBuildUniqueNames(t *testing.T) {
	doc := newDoc(t, document.FrameRange{Start: 0, End: 5},
		document.NewPaint("Line", 0),
		document.NewPaint("line", 0),
		document.NewPaint("Li:ne", 0),
		document.NewPaint("BG.png", 0),
		document.NewPaint("BG"),
		document.NewPaint("Shot.xdts", 0),
	)

	opts := DefaultOptions()
	opts.Filter.IncludeStatic = true
	for range 3 {
		p, err := Build(doc, opts)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"Line", "line_2", "Li_ne", "BG.png", "BG_2", "Shot.xdts_2"}
		if got := unitNames(p.Units); !slices.Equal(got, want) {
			t.Fatalf("names = %v, want %v", got, want)
		}
		if p.Units[4].File != "BG_2.png" {
			t.Errorf("static file = %q, want BG_2.png", p.Units[4].File)
		}
	}
}

func TestBuildBlankCels(t *testing.T) {
	l := &document.Layer{
		Name:    "FX",
		Kind:    document.KindPaint,
		Visible: true,
		Track: &document.Track{Keyframes: []document.Keyframe{
			{Frame: 0},
			{Frame: 4, Blank: true},
			{Frame: 8},
		}},
	}
	doc := newDoc(t, document.FrameRange{Start: 0, End: 11}, l)

	p, err := Build(doc, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	u := p.Units[0]
	if len(u.Cels) != 3 {
		t.Fatalf("cels = %d, want 3", len(u.Cels))
	}
	if !u.Cels[1].Blank || u.Cels[1].File != "" || u.Cels[1].Number != 0 {
		t.Errorf("stop frame cel = %+v", u.Cels[1])
	}
	if u.Cels[2].Number != 2 || u.Cels[2].File != "FX/FX_0002.png" {
		t.Errorf("cel after stop frame = %+v", u.Cels[2])
	}
	if s := p.Stats(); s.Images != 2 || s.StopFrames != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestBuildBlankRequiresAllConstituents(t *testing.T) {
	fx := &document.Layer{
		Name:    "FX",
		Kind:    document.KindPaint,
		Visible: true,
		Track: &document.Track{Keyframes: []document.Keyframe{
			{Frame: 0},
			{Frame: 4, Blank: true},
		}},
	}
	doc := newDoc(t, document.FrameRange{Start: 0, End: 7},
		document.NewGroup("G", fx, document.NewPaint("Body", 0)),
	)
	p, err := Build(doc, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range p.Units[0].Cels {
		if c.Blank {
			t.Errorf("cel %d blank although Body still shows", c.Index)
		}
	}
}

func TestBuildSpanPolicy(t *testing.T) {
	doc := newDoc(t, document.FrameRange{Start: 10, End: 19}, document.NewPaint("Line", 0, 12, 30))

	p, err := Build(doc, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	u := p.Units[0]
	if p.Span.Start != 10 || len(u.Exposure) != 10 {
		t.Errorf("playback span = %v with %d entries", p.Span, len(u.Exposure))
	}
	if got := len(u.Rendered()); got != 2 {
		t.Errorf("rendered in playback = %d, want 2 (cel at 30 is out of span)", got)
	}

	opts := DefaultOptions()
	opts.UseFullClipRange = true
	p, err = Build(doc, opts)
	if err != nil {
		t.Fatal(err)
	}
	if p.Duration() != 48 || len(p.Units[0].Rendered()) != 3 {
		t.Errorf("full clip: duration %d, rendered %d", p.Duration(), len(p.Units[0].Rendered()))
	}
}

func TestBuildInvalidSpan(t *testing.T) {
	doc := &document.Document{
		Name:     "Shot",
		Clip:     document.FrameRange{Start: 0, End: 10},
		Playback: document.FrameRange{Start: 6, End: 2},
		Layers:   []*document.Layer{document.NewPaint("Line", 0)},
	}
	_, err := Build(doc, DefaultOptions())
	if !xerrors.Is(err, xerrors.ErrCodeInvalidDocument) {
		t.Errorf("Build() error = %v, want INVALID_DOCUMENT", err)
	}
}

func TestExportName(t *testing.T) {
	tests := []struct {
		docName  string
		override string
		want     string
		wantErr  xerrors.Code
	}{
		{docName: "Shot.psd", want: "Shot"},
		{docName: "Shot", want: "Shot"},
		{docName: "", want: UntitledName},
		{docName: "a:b", want: "a_b"},
		{docName: "Shot", override: "Take 2", want: "Take 2"},
		{docName: "Shot", override: "a/b", wantErr: xerrors.ErrCodeInvalidName},
		{docName: "Shot", override: "..", wantErr: xerrors.ErrCodeInvalidName},
	}
	for _, tt := range tests {
		got, err := exportName(&document.Document{Name: tt.docName}, tt.override)
		if tt.wantErr != "" {
			if !xerrors.Is(err, tt.wantErr) {
				t.Errorf("exportName(%q, %q) error = %v, want %s", tt.docName, tt.override, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("exportName(%q, %q) = %q, %v; want %q", tt.docName, tt.override, got, err, tt.want)
		}
	}
}

func TestNamingFormats(t *testing.T) {
	tests := []struct {
		naming Naming
		want   string
	}{
		{DefaultNaming(), "Line_0007.png"},
		{Naming{Format: FormatSeq}, "0007.png"},
		{Naming{Prefix: "A", Suffix: "v2", Separator: "-", Ext: ".JPG"}, "A-Line-v2-0007.jpg"},
		{Naming{Format: FormatSeq, Prefix: "cut1", Digits: 3}, "cut1_007.png"},
	}
	for _, tt := range tests {
		n := tt.naming
		n.SetDefaults()
		if err := n.Validate(); err != nil {
			t.Fatalf("Validate(%+v) error = %v", n, err)
		}
		if got := n.CelFile("Line", 7); got != tt.want {
			t.Errorf("CelFile() = %q, want %q", got, tt.want)
		}
	}
}

func TestNamingValidate(t *testing.T) {
	for _, n := range []Naming{
		{Format: "frames", Separator: "_", Ext: "png", Digits: 4},
		{Format: FormatSeq, Separator: "_", Ext: "tga", Digits: 4},
		{Format: FormatSeq, Separator: "/", Ext: "png", Digits: 4},
		{Format: FormatSeq, Prefix: "a*b", Separator: "_", Ext: "png", Digits: 4},
	} {
		if err := n.Validate(); err == nil {
			t.Errorf("Validate(%+v) should fail", n)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"Line":        "Line",
		"a/b\\c":      "a_b_c",
		"  spaced . ": "spaced",
		"...":         "layer",
		"":            "layer",
		"CON":         "CON_",
		"tab\there":   "tab_here",
		"日本":          "日本",
	}
	for in, want := range tests {
		if got := Sanitize(in); got != want {
			t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}
