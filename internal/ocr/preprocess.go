package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder for Decode/DecodeConfig
	"os"

	"golang.org/x/image/draw"

	"github.com/scansnap/scansnap/internal/geometry"
)

// ImageSize reads the pixel dimensions of an image file without decoding the
// full image.
func ImageSize(path string) (geometry.Size, error) {
	f, err := os.Open(path)
	if err != nil {
		return geometry.Size{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return geometry.Size{}, fmt.Errorf("image reports invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	return geometry.Size{Width: float64(cfg.Width), Height: float64(cfg.Height)}, nil
}

// Prepared is a crop+downscale of the source image ready to send to the
// recognition collaborator, together with the frame needed to map the
// collaborator's boxes back into original-image space.
type Prepared struct {
	Image []byte // JPEG bytes
	Frame geometry.Frame
}

// Prepare crops the image to region (nil for the whole image) and downscales
// it to at most maxWidth, preserving aspect ratio. Images already narrower
// than maxWidth are re-encoded but not upscaled.
func Prepare(path string, region *geometry.BoundingBox, maxWidth int) (Prepared, error) {
	f, err := os.Open(path)
	if err != nil {
		return Prepared{}, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return Prepared{}, fmt.Errorf("decode image: %w", err)
	}
	bounds := src.Bounds()
	original := geometry.Size{Width: float64(bounds.Dx()), Height: float64(bounds.Dy())}

	cropRect := bounds
	if region != nil {
		cropRect = image.Rect(
			bounds.Min.X+int(region.X),
			bounds.Min.Y+int(region.Y),
			bounds.Min.X+int(region.X+region.Width),
			bounds.Min.Y+int(region.Y+region.Height),
		).Intersect(bounds)
		if cropRect.Empty() {
			return Prepared{}, fmt.Errorf("crop region %+v lies outside the image", *region)
		}
	}

	outW := cropRect.Dx()
	outH := cropRect.Dy()
	if maxWidth > 0 && outW > maxWidth {
		outH = outH * maxWidth / outW
		outW = maxWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, cropRect, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		return Prepared{}, fmt.Errorf("encode jpeg: %w", err)
	}

	return Prepared{
		Image: buf.Bytes(),
		Frame: geometry.Frame{
			Original:   original,
			Crop:       region,
			Compressed: geometry.Size{Width: float64(outW), Height: float64(outH)},
		},
	}, nil
}
