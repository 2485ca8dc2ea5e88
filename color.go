package labdither

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/wbrown/labdither/imageutil"
)

// RGB represents an output color with 8-bit sRGB-encoded channels. It is
// what gets written to the output raster; it is never mutated once a
// palette entry has been built.
type RGB struct {
	R, G, B uint8
}

// Linear is a color with the sRGB transfer function removed. Channels are
// nominally in [0, 1]. It is the element type of the working buffer that
// error diffusion accumulates into.
type Linear struct {
	R, G, B float64
}

// Lab is a CIE L*a*b* color in conventional units: L in [0, 100], a and b
// roughly in [-128, 127]. It is only used for comparisons.
type Lab struct {
	L, A, B float64
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ToColor converts the color to an opaque color.RGBA.
func (c RGB) ToColor() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// toPixel converts to the imageutil pixel representation.
func (c RGB) toPixel() imageutil.RGB {
	return imageutil.RGB{R: c.R, G: c.G, B: c.B}
}

// rgbFromPixel converts an imageutil pixel to an RGB color.
func rgbFromPixel(p imageutil.RGB) RGB {
	return RGB{R: p.R, G: p.G, B: p.B}
}

// Encoded returns the channels divided by 255 with no gamma decoding. The
// diffusion error term subtracts this from the working buffer value, so
// palette output is treated as if it were already linear. That is a known
// simplification and changes the character of the dither if "fixed".
func (c RGB) Encoded() Linear {
	return Linear{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

// SRGBByteToLinear divides each channel by 255 and removes the sRGB
// transfer function (linear segment below 0.04045, 2.4 power law above).
func SRGBByteToLinear(c RGB) Linear {
	return encodedToLinear(c.Encoded())
}

// encodedToLinear removes the sRGB transfer function from float channels.
func encodedToLinear(c Linear) Linear {
	r, g, b := colorful.Color{R: c.R, G: c.G, B: c.B}.LinearRgb()
	return Linear{R: r, G: g, B: b}
}

// LinearToLab converts linear-light sRGB to CIE L*a*b* relative to the D65
// white point. Out-of-range input is passed through the same formulas.
func LinearToLab(c Linear) Lab {
	x, y, z := colorful.LinearRgbToXyz(c.R, c.G, c.B)
	l, a, b := colorful.XyzToLabWhiteRef(x, y, z, colorful.D65)
	// go-colorful scales Lab to L in [0, 1].
	return Lab{L: l * 100, A: a * 100, B: b * 100}
}

// clamp01 bounds v to [0, 1]. NaN passes through untouched so the nearest
// color search can report it.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
