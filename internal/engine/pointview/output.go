package pointview

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
)

// Format is an output image encoding.
type Format string

// Supported formats.
const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// ErrUnknownFormat is returned for unsupported image formats.
var ErrUnknownFormat = errors.New("unknown image format")

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatPNG, FormatWebP:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Encode writes img in the given format. For WebP a quality of zero or less
// selects lossless compression.
func Encode(w io.Writer, img image.Image, format Format, quality float32) error {
	switch format {
	case FormatPNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encoding PNG: %w", err)
		}
	case FormatWebP:
		opts := &webp.Options{Lossless: quality <= 0, Quality: quality}
		if err := webp.Encode(w, img, opts); err != nil {
			return fmt.Errorf("encoding WebP: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return nil
}

// Scale resamples img to width x height.
func Scale(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}

// WriteFile encodes img to path, choosing the format from the extension.
func WriteFile(path string, img image.Image, quality float32) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := Encode(file, img, format, quality); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// FrameWriter saves frames under timestamped names.
type FrameWriter struct {
	outputDir string
	prefix    string
	format    Format
	quality   float32
}

// NewFrameWriter creates a FrameWriter.
func NewFrameWriter(outputDir, prefix string, format Format, quality float32) *FrameWriter {
	return &FrameWriter{
		outputDir: outputDir,
		prefix:    prefix,
		format:    format,
		quality:   quality,
	}
}

// SetOutputDir sets the directory frames are written to.
func (fw *FrameWriter) SetOutputDir(dir string) {
	fw.outputDir = dir
}

// GenerateFilename returns the name a frame taken at t is saved under.
func (fw *FrameWriter) GenerateFilename(t time.Time) string {
	filename := fmt.Sprintf("%s_%s.%s", fw.prefix, t.Format("2006-01-02_15-04-05"), fw.format)
	if fw.outputDir != "" {
		filename = filepath.Join(fw.outputDir, filename)
	}
	return filename
}

// Write saves img and returns the file name used.
func (fw *FrameWriter) Write(img image.Image) (string, error) {
	filename := fw.GenerateFilename(time.Now())
	if err := WriteFile(filename, img, fw.quality); err != nil {
		return "", err
	}
	return filename, nil
}
