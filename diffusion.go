package labdither

import (
	"context"
	"errors"
	"fmt"

	"github.com/wbrown/labdither/imageutil"
)

// KernelTap is one weighted neighbor of an error diffusion kernel, offset
// from the pixel being quantized.
type KernelTap struct {
	DX, DY int
	Weight float64
}

// Kernel is a forward-only error diffusion kernel: every tap has DY > 0,
// or DY == 0 and DX > 0.
type Kernel []KernelTap

// JarvisJudiceNinke spreads error over a 5x3 neighborhood. The weights sum
// to exactly 1.
var JarvisJudiceNinke = Kernel{
	{1, 0, 7.0 / 48}, {2, 0, 5.0 / 48},
	{-2, 1, 3.0 / 48}, {-1, 1, 5.0 / 48}, {0, 1, 7.0 / 48}, {1, 1, 5.0 / 48}, {2, 1, 3.0 / 48},
	{-2, 2, 1.0 / 48}, {-1, 2, 3.0 / 48}, {0, 2, 5.0 / 48}, {1, 2, 3.0 / 48}, {2, 2, 1.0 / 48},
}

// Sum returns the total weight of the kernel.
func (k Kernel) Sum() float64 {
	var s float64
	for _, t := range k {
		s += t.Weight
	}
	return s
}

// ErrorSpace selects what the working buffer holds.
type ErrorSpace int

const (
	// LinearErrorSpace stores linear light in the buffer. Error is the
	// buffer value minus the palette color's raw byte/255 value.
	LinearErrorSpace ErrorSpace = iota

	// EncodedErrorSpace stores gamma-encoded sRGB floats in the buffer and
	// linearizes them only for the Lab lookup, so error is measured
	// entirely in encoded space.
	EncodedErrorSpace
)

func (s ErrorSpace) String() string {
	switch s {
	case LinearErrorSpace:
		return "linear"
	case EncodedErrorSpace:
		return "encoded"
	}
	return fmt.Sprintf("ErrorSpace(%d)", int(s))
}

// ParseErrorSpace parses "linear" or "encoded".
func ParseErrorSpace(s string) (ErrorSpace, error) {
	switch s {
	case "linear":
		return LinearErrorSpace, nil
	case "encoded":
		return EncodedErrorSpace, nil
	}
	return 0, fmt.Errorf("unknown error space %q", s)
}

// workingBuffer holds one color per pixel, row-major, indexed
// y*width+x. It belongs to exactly one pass.
type workingBuffer struct {
	width, height int
	pix           []Linear
}

func newWorkingBuffer(img *imageutil.RGBAImage, space ErrorSpace) *workingBuffer {
	width, height := img.Width(), img.Height()
	b := &workingBuffer{
		width:  width,
		height: height,
		pix:    make([]Linear, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := rgbFromPixel(img.GetRGB(x, y))
			if space == EncodedErrorSpace {
				b.pix[y*width+x] = c.Encoded()
			} else {
				b.pix[y*width+x] = SRGBByteToLinear(c)
			}
		}
	}
	return b
}

func (b *workingBuffer) at(x, y int) Linear {
	return b.pix[y*b.width+x]
}

// diffuse adds weighted shares of e to the in-bounds taps of k around
// (x, y), clamping every channel to [0, 1] after each addition. Shares
// that fall outside the raster are dropped. Only nx >= 0, nx < width and
// ny < height are checked; forward kernels never produce ny < 0.
func (b *workingBuffer) diffuse(x, y int, e Linear, k Kernel) {
	for _, tap := range k {
		nx, ny := x+tap.DX, y+tap.DY
		if nx >= 0 && nx < b.width && ny < b.height {
			p := &b.pix[ny*b.width+nx]
			p.R = clamp01(p.R + e.R*tap.Weight)
			p.G = clamp01(p.G + e.G*tap.Weight)
			p.B = clamp01(p.B + e.B*tap.Weight)
		}
	}
}

// Ditherer quantizes an image to a palette with Jarvis-Judice-Ninke error
// diffusion. The zero value is not usable; Palette and Method must be set
// and Strength must be in (0, 1].
type Ditherer struct {
	Palette  Palette
	Method   ColorDistanceMethod
	Strength float64
	Space    ErrorSpace
}

func (d *Ditherer) validate() error {
	if len(d.Palette) == 0 {
		return ErrEmptyPalette
	}
	if d.Method == nil {
		return errors.New("no color distance method")
	}
	if !(d.Strength > 0 && d.Strength <= 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidStrength, d.Strength)
	}
	return nil
}

// Dither runs one raster-order pass over img and returns a new image of
// the same size containing only palette colors. img is not modified.
//
// Pixels are visited strictly top to bottom, left to right: each pixel's
// error lands in pixels that are read later, so the scan cannot be
// reordered or split. Any failure, including a NaN color difference or
// ctx being done (checked between rows), aborts the pass and no image is
// returned.
func (d *Ditherer) Dither(ctx context.Context, img *imageutil.RGBAImage) (*imageutil.RGBAImage, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	buf := newWorkingBuffer(img, d.Space)
	out := imageutil.NewRGBAImage(buf.width, buf.height)
	s := d.Strength

	for y := 0; y < buf.height; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < buf.width; x++ {
			cur := buf.at(x, y)
			lin := cur
			if d.Space == EncodedErrorSpace {
				lin = encodedToLinear(cur)
			}

			i, err := Nearest(LinearToLab(lin), d.Palette, d.Method)
			if err != nil {
				var ce *ComparisonError
				if errors.As(err, &ce) {
					ce.X, ce.Y = x, y
				}
				return nil, err
			}
			entry := d.Palette[i]
			out.SetRGB(x, y, entry.RGB.toPixel())

			q := entry.RGB.Encoded()
			buf.diffuse(x, y, Linear{
				R: s * (cur.R - q.R),
				G: s * (cur.G - q.G),
				B: s * (cur.B - q.B),
			}, JarvisJudiceNinke)
		}
	}
	return out, nil
}
