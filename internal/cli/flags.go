package cli

import (
	"github.com/spf13/pflag"

	"github.com/matzehuels/xsheet/pkg/pipeline"
)

// Flag names shared by commands and the config layer.
const (
	flagFlattenGroups    = "flatten-groups"
	flagIncludeInvisible = "include-invisible"
	flagIncludeReference = "include-reference"
	flagIncludeStatic    = "include-static"
	flagFullRange        = "full-range"
	flagExportDir        = "export-dir"
	flagName             = "name"
	flagFormat           = "format"
	flagFileFormat       = "file-format"
	flagPrefix           = "prefix"
	flagSuffix           = "suffix"
	flagSeparator        = "separator"
	flagCut              = "cut"
	flagScene            = "scene"
	flagCompression      = "compression"
	flagQuality          = "quality"
	flagWorkers          = "workers"
	flagRenderer         = "renderer"
	flagRenderCommand    = "render-command"
)

// addSelectionFlags registers the flags that decide which layers are exported.
func addSelectionFlags(fs *pflag.FlagSet, opts *pipeline.Options) {
	fs.BoolVar(&opts.FlattenGroups, flagFlattenGroups, opts.FlattenGroups, "export animated groups as one merged unit")
	fs.BoolVar(&opts.IncludeInvisible, flagIncludeInvisible, opts.IncludeInvisible, "include hidden layers")
	fs.BoolVar(&opts.IncludeReference, flagIncludeReference, opts.IncludeReference, "include grey-labeled and marker-named layers")
	fs.BoolVar(&opts.IncludeStatic, flagIncludeStatic, opts.IncludeStatic, "also write layers without keyframes as single images")
}

// addPlanFlags registers selection, range and naming flags.
func addPlanFlags(fs *pflag.FlagSet, opts *pipeline.Options) {
	addSelectionFlags(fs, opts)
	fs.BoolVar(&opts.UseFullClipRange, flagFullRange, opts.UseFullClipRange, "use the full clip range instead of the playback range")
	fs.StringVar(&opts.ExportName, flagName, opts.ExportName, "export name (default: document name without extension)")
	fs.StringVarP(&opts.Format, flagFormat, "f", opts.Format, "image format: png, jpg, bmp, tif, gif")
	fs.StringVar(&opts.FileFormat, flagFileFormat, opts.FileFormat, "cel file naming: layer (Line_0001.png) or seq (0001.png)")
	fs.StringVar(&opts.Prefix, flagPrefix, opts.Prefix, "text prepended to every cel file name")
	fs.StringVar(&opts.Suffix, flagSuffix, opts.Suffix, "text appended to every cel file name before the extension")
	fs.StringVar(&opts.Separator, flagSeparator, opts.Separator, "separator between unit name and cel number")
}

// addExportFlags registers every option of an export run.
func addExportFlags(fs *pflag.FlagSet, opts *pipeline.Options) {
	addPlanFlags(fs, opts)
	fs.StringVarP(&opts.ExportDir, flagExportDir, "o", opts.ExportDir, "export directory (env "+envExportDir+")")
	fs.StringVar(&opts.Cut, flagCut, opts.Cut, "cut number written to the sheet header")
	fs.StringVar(&opts.Scene, flagScene, opts.Scene, "scene number written to the sheet header")
	fs.IntVar(&opts.Compression, flagCompression, opts.Compression, "PNG compression level 0-9")
	fs.IntVar(&opts.Quality, flagQuality, opts.Quality, "JPEG quality 1-100")
	fs.IntVarP(&opts.Workers, flagWorkers, "j", opts.Workers, "parallel renders")
	fs.StringVar(&opts.Renderer, flagRenderer, opts.Renderer, "renderer: cels (composite cel images) or command (external program)")
	fs.StringVar(&opts.RenderCommand, flagRenderCommand, opts.RenderCommand, "command template for the command renderer, e.g. 'krita-render {document} {layers} {frame}'")
	fs.BoolVar(&opts.DryRun, "dry-run", opts.DryRun, "plan and validate without writing files")
}
