// Package debug provides screenshot capture of the presented frame.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// PixelReader reads the current frame as bottom-up RGBA rows.
type PixelReader interface {
	ReadPixels() ([]byte, int, int, error)
}

// Capturer writes PNG screenshots into a directory.
type Capturer struct {
	outputDir string
	prefix    string
	now       func() time.Time
}

// NewCapturer creates a new screenshot capture handler.
func NewCapturer(outputDir, prefix string) *Capturer {
	return &Capturer{
		outputDir: outputDir,
		prefix:    prefix,
		now:       time.Now,
	}
}

// Capture reads the frame from r and saves it.
func (c *Capturer) Capture(r PixelReader) (string, error) {
	pixels, width, height, err := r.ReadPixels()
	if err != nil {
		return "", fmt.Errorf("reading pixels: %w", err)
	}
	return c.CaptureFromPixels(pixels, width, height)
}

// CaptureFromPixels saves raw RGBA pixel data with width*height*4 bytes.
// The image is flipped vertically since OpenGL has origin at bottom-left.
func (c *Capturer) CaptureFromPixels(pixels []byte, width, height int) (string, error) {
	img, err := FlipRGBA(pixels, width, height)
	if err != nil {
		return "", err
	}

	if c.outputDir != "" {
		if err := os.MkdirAll(c.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := c.Filename()
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}

	return filename, nil
}

// Filename generates a screenshot filename without saving.
func (c *Capturer) Filename() string {
	timestamp := c.now().Format("2006-01-02_15-04-05.000")
	filename := fmt.Sprintf("%s_%s.png", c.prefix, timestamp)
	if c.outputDir != "" {
		filename = filepath.Join(c.outputDir, filename)
	}
	return filename
}

// FlipRGBA copies bottom-up RGBA rows into a top-down image.
func FlipRGBA(pixels []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		srcOffset := (height - 1 - y) * rowSize
		dstOffset := y * img.Stride
		copy(img.Pix[dstOffset:dstOffset+rowSize], pixels[srcOffset:srcOffset+rowSize])
	}
	return img, nil
}
