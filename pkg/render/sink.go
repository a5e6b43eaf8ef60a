package render

import (
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

const (
	// DefaultCompression is the default PNG compression level (0-9).
	DefaultCompression = 6
	// DefaultQuality is the default JPEG quality (1-100).
	DefaultQuality = 95
)

// FileSink encodes images to files. The format follows the file extension.
type FileSink struct {
	// Compression is the PNG compression level from 0 (none) to 9 (best).
	Compression int
	// Quality is the JPEG quality from 1 to 100.
	Quality int
}

// NewFileSink returns a sink with default settings.
func NewFileSink() *FileSink {
	return &FileSink{Compression: DefaultCompression, Quality: DefaultQuality}
}

// Write encodes img to path, replacing an existing file.
func (s *FileSink) Write(path string, img image.Image) error {
	if err := imaging.Save(img, path, s.options()...); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func (s *FileSink) options() []imaging.EncodeOption {
	q := s.Quality
	if q <= 0 || q > 100 {
		q = DefaultQuality
	}
	return []imaging.EncodeOption{
		imaging.PNGCompressionLevel(PNGLevel(s.Compression)),
		imaging.JPEGQuality(q),
	}
}

// PNGLevel maps a 0-9 compression level onto the levels image/png offers.
func PNGLevel(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}
