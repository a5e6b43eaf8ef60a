package plan

import (
	"fmt"
	"strings"

	xerrors "github.com/matzehuels/xsheet/pkg/errors"
)

// FileFormat selects how numbered cel files are named.
type FileFormat string

const (
	// FormatLayerSeq names cel files "<Unit>_0001.<ext>".
	FormatLayerSeq FileFormat = "layer"
	// FormatSeq names cel files "0001.<ext>".
	FormatSeq FileFormat = "seq"
)

const (
	// DefaultExt is the default image extension.
	DefaultExt = "png"
	// DefaultSeparator joins prefix, unit name, suffix and number.
	DefaultSeparator = "_"
	// DefaultDigits is the zero padding of cel numbers.
	DefaultDigits = 4
	// SheetExt is the exposure sheet file extension.
	SheetExt = "xdts"
	// UntitledName is used when the document has no usable name.
	UntitledName = "Untitled_Animation"
)

// ValidExts is the set of supported image extensions.
var ValidExts = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"tif":  true,
	"tiff": true,
	"bmp":  true,
	"gif":  true,
}

// Naming is the file naming convention of a plan.
type Naming struct {
	Format    FileFormat `json:"format" toml:"format"`
	Prefix    string     `json:"prefix,omitempty" toml:"prefix"`
	Suffix    string     `json:"suffix,omitempty" toml:"suffix"`
	Separator string     `json:"separator" toml:"separator"`
	Ext       string     `json:"ext" toml:"ext"`
	Digits    int        `json:"digits" toml:"digits"`
}

// DefaultNaming returns the "<Unit>_0001.png" convention.
func DefaultNaming() Naming {
	return Naming{
		Format:    FormatLayerSeq,
		Separator: DefaultSeparator,
		Ext:       DefaultExt,
		Digits:    DefaultDigits,
	}
}

// SetDefaults fills zero fields from [DefaultNaming].
func (n *Naming) SetDefaults() {
	d := DefaultNaming()
	if n.Format == "" {
		n.Format = d.Format
	}
	if n.Separator == "" {
		n.Separator = d.Separator
	}
	if n.Ext == "" {
		n.Ext = d.Ext
	}
	n.Ext = strings.ToLower(strings.TrimPrefix(n.Ext, "."))
	if n.Digits <= 0 {
		n.Digits = d.Digits
	}
}

// Validate checks the convention after defaults have been applied.
func (n Naming) Validate() error {
	if n.Format != FormatLayerSeq && n.Format != FormatSeq {
		return xerrors.New(xerrors.ErrCodeInvalidFormat, "invalid file format: %q (must be 'layer' or 'seq')", n.Format)
	}
	if !ValidExts[n.Ext] {
		return xerrors.New(xerrors.ErrCodeInvalidFormat, "unsupported image format: %q (must be png, jpg, tif, bmp or gif)", n.Ext)
	}
	for kind, v := range map[string]string{"prefix": n.Prefix, "suffix": n.Suffix, "separator": n.Separator} {
		if err := xerrors.ValidateAffix(kind, v); err != nil {
			return err
		}
	}
	return nil
}

// CelFile returns the file name of the number-th image of unit.
func (n Naming) CelFile(unit string, number int) string {
	var parts []string
	if n.Prefix != "" {
		parts = append(parts, n.Prefix)
	}
	if n.Format != FormatSeq {
		parts = append(parts, unit)
	}
	if n.Suffix != "" {
		parts = append(parts, n.Suffix)
	}
	parts = append(parts, fmt.Sprintf("%0*d", n.Digits, number))
	return strings.Join(parts, n.Separator) + "." + n.Ext
}

// StaticFile returns the file name of a static unit's image.
func (n Naming) StaticFile(unit string) string {
	return unit + "." + n.Ext
}

// invalidChars are rejected by at least one common filesystem.
const invalidChars = `<>:"/\|?*`

// reservedNames are device names Windows refuses as file names.
var reservedNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true, "com5": true,
	"com6": true, "com7": true, "com8": true, "com9": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true, "lpt5": true,
	"lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
}

// Sanitize turns a layer or document name into a portable file name.
// Characters invalid on common filesystems become '_', surrounding spaces
// and dots are trimmed and an empty result becomes "layer".
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(invalidChars, r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	s := strings.Trim(b.String(), " .")
	if s == "" {
		return "layer"
	}
	if reservedNames[strings.ToLower(s)] {
		s += "_"
	}
	return s
}

// registry hands out unique names. Comparison is case-insensitive because
// the default filesystems on Windows and macOS are.
type registry struct {
	used map[string]bool
}

func newRegistry() *registry {
	return &registry{used: make(map[string]bool)}
}

// reserve marks an entry as taken.
func (r *registry) reserve(entry string) {
	r.used[strings.ToLower(entry)] = true
}

// unique returns base or the first free base_2, base_3, ... where entry maps
// a candidate name to the directory entry it will occupy. Both the unit name
// and its entry must be free.
func (r *registry) unique(base string, entry func(string) string) string {
	taken := func(n string) bool {
		return r.used[strings.ToLower(n)] || r.used[strings.ToLower(entry(n))]
	}
	name := base
	for i := 2; taken(name); i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	r.reserve(name)
	r.reserve(entry(name))
	return name
}
