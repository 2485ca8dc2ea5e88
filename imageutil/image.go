// Package imageutil provides the image plumbing around the ditherer:
// an RGBA wrapper with per-pixel helpers, file loading and saving, and
// resampling.
package imageutil

import (
	"image"
	"image/color"
)

// RGB represents a color in the RGB color space with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

// ToColor converts RGB to an opaque color.RGBA.
func (rgb RGB) ToColor() color.RGBA {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
}

// RGBFromColor converts a color.Color to RGB, dropping alpha. The color
// channels are un-premultiplied first, so a translucent pixel keeps its
// hue rather than fading toward black.
func RGBFromColor(c color.Color) RGB {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{R: n.R, G: n.G, B: n.B}
}

// RGBAImage wraps image.RGBA with convenience methods for pixel access.
// Every pixel is kept opaque.
type RGBAImage struct {
	*image.RGBA
}

// NewRGBAImage creates a new RGBAImage with the specified dimensions.
func NewRGBAImage(width, height int) *RGBAImage {
	return &RGBAImage{
		RGBA: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// RGBAImageFromImage converts any image.Image to an opaque RGBAImage
// with its origin at (0, 0).
func RGBAImageFromImage(img image.Image) *RGBAImage {
	bounds := img.Bounds()
	rgba := NewRGBAImage(bounds.Dx(), bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.SetRGB(x-bounds.Min.X, y-bounds.Min.Y, RGBFromColor(img.At(x, y)))
		}
	}
	return rgba
}

// Width returns the image width.
func (img *RGBAImage) Width() int {
	return img.Bounds().Dx()
}

// Height returns the image height.
func (img *RGBAImage) Height() int {
	return img.Bounds().Dy()
}

// GetRGB returns the RGB value at (x, y), counted from the top-left
// corner of the bounds, so a wrapped SubImage reads its own pixels.
func (img *RGBAImage) GetRGB(x, y int) RGB {
	c := img.RGBAAt(img.Rect.Min.X+x, img.Rect.Min.Y+y)
	return RGB{R: c.R, G: c.G, B: c.B}
}

// SetRGB sets the RGB value at (x, y), counted like GetRGB.
func (img *RGBAImage) SetRGB(x, y int, c RGB) {
	img.SetRGBA(img.Rect.Min.X+x, img.Rect.Min.Y+y, c.ToColor())
}

// Clone creates a deep copy of the image with its origin at (0, 0).
func (img *RGBAImage) Clone() *RGBAImage {
	w, h := img.Width(), img.Height()
	clone := NewRGBAImage(w, h)
	for y := 0; y < h; y++ {
		src := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(clone.Pix[y*clone.Stride:y*clone.Stride+4*w], img.Pix[src:src+4*w])
	}
	return clone
}

// Equal reports whether two images have the same size and pixels.
func (img *RGBAImage) Equal(other *RGBAImage) bool {
	if img.Width() != other.Width() || img.Height() != other.Height() {
		return false
	}
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			if img.GetRGB(x, y) != other.GetRGB(x, y) {
				return false
			}
		}
	}
	return true
}
