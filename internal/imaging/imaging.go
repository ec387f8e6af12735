// Package imaging holds the per-conversion temp workspace and the optional
// image optimization pass applied before figures are embedded.
package imaging

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// MaxEmbedWidth is the pixel width images are downscaled to when
// optimization is enabled. Word renders embedded figures at 4in anyway, so
// anything wider just bloats the package.
const MaxEmbedWidth = 1600

// Workspace is a per-conversion scratch directory for extracted and
// optimized media. It is never shared between conversions.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a fresh temp directory for one conversion.
func NewWorkspace() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "doctex-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// Cleanup removes the workspace. Safe to call twice.
func (w *Workspace) Cleanup() {
	if w != nil && w.Dir != "" {
		os.RemoveAll(w.Dir)
		w.Dir = ""
	}
}

// Optimize copies the image at src into the workspace, downscaling it to
// MaxEmbedWidth when it is wider. Returns the path of the staged copy.
// Formats other than PNG/JPEG are copied through untouched.
func (w *Workspace) Optimize(src string) (string, error) {
	dst := filepath.Join(w.Dir, filepath.Base(src))

	f, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(src))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return dst, copyFile(f, dst)
	}

	img, format, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("failed to decode image %s: %w", src, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= MaxEmbedWidth {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return "", err
		}
		return dst, copyFile(f, dst)
	}

	scale := float64(MaxEmbedWidth) / float64(bounds.Dx())
	height := int(float64(bounds.Dy()) * scale)
	scaled := image.NewRGBA(image.Rect(0, 0, MaxEmbedWidth, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	switch format {
	case "png":
		err = png.Encode(out, scaled)
	default:
		err = jpeg.Encode(out, scaled, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return "", fmt.Errorf("failed to re-encode image %s: %w", src, err)
	}
	return dst, nil
}

func copyFile(src io.Reader, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
