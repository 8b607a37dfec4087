package geometry

// Frame describes one recognition round-trip: the original image, an optional
// crop region in original-image coordinates, and the compressed image size the
// OCR collaborator actually received. Boxes come back in compressed-image space
// and must be mapped to original-image space through the frame.
//
// Zero compressed dimensions are a caller-contract violation; callers validate
// dimensions before building a frame.
type Frame struct {
	Original   Size
	Crop       *BoundingBox // nil when the whole image was sent
	Compressed Size
}

// Scale returns the compressed→original scale factors.
// scaleX = cropW / W1, scaleY = cropH / H1, where crop dims default to the
// full original dimensions when no crop region is present.
func (f Frame) Scale() (scaleX, scaleY float64) {
	cropW, cropH := f.Original.Width, f.Original.Height
	if f.Crop != nil {
		cropW, cropH = f.Crop.Width, f.Crop.Height
	}
	return cropW / f.Compressed.Width, cropH / f.Compressed.Height
}

// offset returns the crop origin, or (0,0) when the whole image was sent.
func (f Frame) offset() (x, y float64) {
	if f.Crop == nil {
		return 0, 0
	}
	return f.Crop.X, f.Crop.Y
}

// ToOriginal maps a box reported in compressed-image coordinates into
// original-image coordinates.
func (f Frame) ToOriginal(box BoundingBox) BoundingBox {
	sx, sy := f.Scale()
	ox, oy := f.offset()
	return BoundingBox{
		X:      box.X*sx + ox,
		Y:      box.Y*sy + oy,
		Width:  box.Width * sx,
		Height: box.Height * sy,
	}
}

// ToCompressed maps a box in original-image coordinates into compressed-image
// coordinates. Inverse of ToOriginal up to floating-point rounding.
func (f Frame) ToCompressed(box BoundingBox) BoundingBox {
	sx, sy := f.Scale()
	ox, oy := f.offset()
	return BoundingBox{
		X:      (box.X - ox) / sx,
		Y:      (box.Y - oy) / sy,
		Width:  box.Width / sx,
		Height: box.Height / sy,
	}
}

// Display maps between original-image coordinates and on-screen coordinates.
// Display size is computed to preserve aspect ratio against a fixed container
// width; image and display share an origin, so the mapping is purely
// multiplicative.
type Display struct {
	Image Size
	View  Size
}

// FitWidth computes the display size for an image constrained to
// containerWidth, preserving aspect ratio.
func FitWidth(image Size, containerWidth float64) Size {
	return Size{
		Width:  containerWidth,
		Height: image.Height * containerWidth / image.Width,
	}
}

// Scale returns the image→display scale factors.
func (d Display) Scale() (scaleX, scaleY float64) {
	return d.View.Width / d.Image.Width, d.View.Height / d.Image.Height
}

// ToView maps a box in original-image coordinates to on-screen coordinates.
func (d Display) ToView(box BoundingBox) BoundingBox {
	sx, sy := d.Scale()
	return BoundingBox{X: box.X * sx, Y: box.Y * sy, Width: box.Width * sx, Height: box.Height * sy}
}

// SelectionToImage converts a user's on-screen drag rectangle, given by its
// start and end corners in any drag direction, into original-image
// coordinates.
func (d Display) SelectionToImage(startX, startY, endX, endY float64) BoundingBox {
	sx, sy := d.Scale()
	sel := Normalized(startX, startY, endX, endY)
	return BoundingBox{
		X:      sel.X / sx,
		Y:      sel.Y / sy,
		Width:  sel.Width / sx,
		Height: sel.Height / sy,
	}
}
