package labdither

import (
	"context"
	"errors"
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/makeworld-the-better-one/dither/v2"

	"github.com/wbrown/labdither/imageutil"
)

func TestKernelWeightsSumToOne(t *testing.T) {
	if s := JarvisJudiceNinke.Sum(); math.Abs(s-1) > 1e-15 {
		t.Errorf("Expected kernel sum 1, got %.17g", s)
	}
	if len(JarvisJudiceNinke) != 12 {
		t.Errorf("Expected 12 taps, got %d", len(JarvisJudiceNinke))
	}
	for _, tap := range JarvisJudiceNinke {
		if tap.DY < 0 || (tap.DY == 0 && tap.DX <= 0) {
			t.Errorf("Tap %+v points backwards", tap)
		}
	}
}

func TestKernelMatchesDitherLibrary(t *testing.T) {
	// The dither library stores JJN as a 3x5 matrix whose current pixel
	// sits just left of the first non-zero entry of the top row.
	matrix := dither.JarvisJudiceNinke
	origin := -1
	for i, w := range matrix[0] {
		if w != 0 {
			origin = i - 1
			break
		}
	}

	taps := map[[2]int]float64{}
	for dy, row := range matrix {
		for i, w := range row {
			if w != 0 {
				taps[[2]int{i - origin, dy}] = float64(w)
			}
		}
	}
	if len(taps) != len(JarvisJudiceNinke) {
		t.Fatalf("Library has %d taps, expected %d", len(taps), len(JarvisJudiceNinke))
	}
	for _, tap := range JarvisJudiceNinke {
		w, ok := taps[[2]int{tap.DX, tap.DY}]
		if !ok {
			t.Errorf("Tap (%d,%d) missing from library matrix", tap.DX, tap.DY)
			continue
		}
		if math.Abs(w-tap.Weight) > 1e-6 {
			t.Errorf("Tap (%d,%d): library weight %v, ours %v", tap.DX, tap.DY, w, tap.Weight)
		}
	}
}

func uniformBuffer(width, height int, v float64) *workingBuffer {
	b := &workingBuffer{width: width, height: height, pix: make([]Linear, width*height)}
	for i := range b.pix {
		b.pix[i] = Linear{v, v, v}
	}
	return b
}

func bufferSum(b *workingBuffer) Linear {
	var s Linear
	for _, p := range b.pix {
		s.R += p.R
		s.G += p.G
		s.B += p.B
	}
	return s
}

func TestDiffuseConservesErrorInterior(t *testing.T) {
	// A 5x3 raster with the source at (2,0) has all 12 neighbors in bounds.
	for _, strength := range []float64{1, 0.75, 0.3} {
		b := uniformBuffer(5, 3, 0.5)
		before := bufferSum(b)
		original := Linear{R: 0.2, G: -0.1, B: 0.05}
		e := Linear{R: strength * original.R, G: strength * original.G, B: strength * original.B}
		b.diffuse(2, 0, e, JarvisJudiceNinke)

		after := bufferSum(b)
		if math.Abs(after.R-before.R-e.R) > 1e-12 ||
			math.Abs(after.G-before.G-e.G) > 1e-12 ||
			math.Abs(after.B-before.B-e.B) > 1e-12 {
			t.Errorf("strength %v: added %+v, expected %+v", strength,
				Linear{after.R - before.R, after.G - before.G, after.B - before.B}, e)
		}
		// The source and the pixels left of it in its row are untouched.
		for x := 0; x <= 2; x++ {
			if b.at(x, 0) != (Linear{0.5, 0.5, 0.5}) {
				t.Errorf("Pixel (%d,0) changed to %+v", x, b.at(x, 0))
			}
		}
	}
}

func TestDiffuseDropsOutOfBounds(t *testing.T) {
	// Bottom-right corner: no neighbor is in bounds.
	b := uniformBuffer(3, 3, 0.5)
	b.diffuse(2, 2, Linear{0.3, 0.3, 0.3}, JarvisJudiceNinke)
	for i, p := range b.pix {
		if p != (Linear{0.5, 0.5, 0.5}) {
			t.Errorf("Pixel %d changed to %+v", i, p)
		}
	}

	// Left edge: only taps with nx >= 0 receive error, the rest is lost.
	b = uniformBuffer(5, 3, 0.5)
	b.diffuse(0, 0, Linear{0.48, 0, 0}, JarvisJudiceNinke)
	var want float64
	for _, tap := range JarvisJudiceNinke {
		if tap.DX >= 0 {
			want += 0.48 * tap.Weight
		}
	}
	got := bufferSum(b).R - 0.5*15
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Expected %v of error kept at the left edge, got %v", want, got)
	}
}

func TestDiffuseClamps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 200; n++ {
		w, h := 1+rng.Intn(8), 1+rng.Intn(8)
		b := &workingBuffer{width: w, height: h, pix: make([]Linear, w*h)}
		for i := range b.pix {
			b.pix[i] = Linear{rng.Float64(), rng.Float64(), rng.Float64()}
		}
		strength := 1 - rng.Float64() // (0, 1]
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				e := Linear{
					R: strength * (rng.Float64()*2 - 1) * 4,
					G: strength * (rng.Float64()*2 - 1) * 4,
					B: strength * (rng.Float64()*2 - 1) * 4,
				}
				b.diffuse(x, y, e, JarvisJudiceNinke)
				for i, p := range b.pix {
					for _, ch := range []float64{p.R, p.G, p.B} {
						if ch < 0 || ch > 1 {
							t.Fatalf("Pixel %d out of range after diffusing from (%d,%d): %+v",
								i, x, y, p)
						}
					}
				}
			}
		}
	}
}

func newBWDitherer(t *testing.T) *Ditherer {
	t.Helper()
	return &Ditherer{
		Palette:  MustPalette("#000000", "#ffffff"),
		Method:   ImprovedCIEDE2000Method{},
		Strength: 1,
	}
}

func TestDitherSolidPaletteColor(t *testing.T) {
	c := imageutil.RGB{R: 0x62, G: 0x72, B: 0xa4}
	img := imageutil.CreateSolidImage(2, 2, c)
	d := &Ditherer{
		Palette:  MustPalette("#6272a4"),
		Method:   ImprovedCIEDE2000Method{},
		Strength: 1,
	}
	for _, space := range []ErrorSpace{LinearErrorSpace, EncodedErrorSpace} {
		d.Space = space
		out, err := d.Dither(context.Background(), img)
		if err != nil {
			t.Fatal(err)
		}
		if !out.Equal(img) {
			t.Errorf("%v: output differs from input", space)
		}
	}
}

func TestDitherSinglePixelMidGray(t *testing.T) {
	img := imageutil.CreateSolidImage(1, 1, imageutil.RGB{R: 0x80, G: 0x80, B: 0x80})
	d := newBWDitherer(t)

	gray := LinearToLab(SRGBByteToLinear(RGB{0x80, 0x80, 0x80}))
	want, err := Nearest(gray, d.Palette, d.Method)
	if err != nil {
		t.Fatal(err)
	}
	// Mid-gray is perceptually closer to white than to black.
	if want != 1 {
		t.Errorf("Expected white to be nearest to #808080, got entry %d", want)
	}

	out, err := d.Dither(context.Background(), img)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.GetRGB(0, 0); got != d.Palette[want].RGB.toPixel() {
		t.Errorf("Expected %s, got %v", d.Palette[want].Hex, got)
	}
}

func TestDitherOnlyPaletteColors(t *testing.T) {
	p, err := LoadPalette("dracula")
	if err != nil {
		t.Fatal(err)
	}
	img := imageutil.CreateNoiseImage(24, 16, 7)
	d := &Ditherer{Palette: p, Method: CIEDE2000Method{}, Strength: 0.8}
	out, err := d.Dither(context.Background(), img)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width() != 24 || out.Height() != 16 {
		t.Fatalf("Expected 24x16, got %dx%d", out.Width(), out.Height())
	}
	for y := 0; y < out.Height(); y++ {
		for x := 0; x < out.Width(); x++ {
			if p.IndexOf(rgbFromPixel(out.GetRGB(x, y))) < 0 {
				t.Fatalf("Pixel (%d,%d) = %v is not a palette color", x, y, out.GetRGB(x, y))
			}
		}
	}
}

func TestDitherDeterministic(t *testing.T) {
	img := imageutil.CreateGradientImage(40, 12)
	for _, space := range []ErrorSpace{LinearErrorSpace, EncodedErrorSpace} {
		d := newBWDitherer(t)
		d.Space = space
		d.Strength = 0.9
		a, err := d.Dither(context.Background(), img)
		if err != nil {
			t.Fatal(err)
		}
		b, err := d.Dither(context.Background(), img)
		if err != nil {
			t.Fatal(err)
		}
		if !a.Equal(b) {
			t.Errorf("%v: two passes over the same input differ", space)
		}
	}
}

func TestDitherFollowsJJNPass(t *testing.T) {
	// Replay the raster scan by hand with the fixed kernel and compare.
	img := imageutil.CreateNoiseImage(9, 5, 11)
	d := newBWDitherer(t)
	d.Strength = 0.6
	out, err := d.Dither(context.Background(), img)
	if err != nil {
		t.Fatal(err)
	}

	buf := newWorkingBuffer(img, LinearErrorSpace)
	for y := 0; y < buf.height; y++ {
		for x := 0; x < buf.width; x++ {
			cur := buf.at(x, y)
			i, err := Nearest(LinearToLab(cur), d.Palette, d.Method)
			if err != nil {
				t.Fatal(err)
			}
			if got := out.GetRGB(x, y); got != d.Palette[i].RGB.toPixel() {
				t.Fatalf("Pixel (%d,%d) = %v, expected %s", x, y, got, d.Palette[i].Hex)
			}
			q := d.Palette[i].RGB.Encoded()
			buf.diffuse(x, y, Linear{
				R: 0.6 * (cur.R - q.R),
				G: 0.6 * (cur.G - q.G),
				B: 0.6 * (cur.B - q.B),
			}, JarvisJudiceNinke)
		}
	}
}

func TestDitherSubImage(t *testing.T) {
	white := imageutil.RGB{R: 255, G: 255, B: 255}
	full := imageutil.CreateSolidImage(8, 8, imageutil.RGB{})
	for y := 4; y < 8; y++ {
		for x := 4; x < 8; x++ {
			full.SetRGB(x, y, white)
		}
	}
	sub := &imageutil.RGBAImage{RGBA: full.SubImage(image.Rect(4, 4, 8, 8)).(*image.RGBA)}

	out, err := newBWDitherer(t).Dither(context.Background(), sub)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width() != 4 || out.Height() != 4 {
		t.Fatalf("Expected 4x4, got %dx%d", out.Width(), out.Height())
	}
	if !out.Equal(imageutil.CreateSolidImage(4, 4, white)) {
		t.Error("Expected the white sub-image to stay white")
	}
}

func TestDitherDoesNotModifyInput(t *testing.T) {
	img := imageutil.CreateGradientImage(16, 4)
	orig := img.Clone()
	if _, err := newBWDitherer(t).Dither(context.Background(), img); err != nil {
		t.Fatal(err)
	}
	if !img.Equal(orig) {
		t.Error("Dither modified its input")
	}
}

func TestDitherPreservesAverage(t *testing.T) {
	// In encoded space error is measured in the same units as the output,
	// so the average of a flat field survives the pass.
	img := imageutil.CreateSolidImage(64, 64, imageutil.RGB{R: 100, G: 100, B: 100})
	d := newBWDitherer(t)
	d.Space = EncodedErrorSpace
	out, err := d.Dither(context.Background(), img)
	if err != nil {
		t.Fatal(err)
	}
	r, _, _ := imageutil.MeanColor(out)
	if math.Abs(r-100) > 10 {
		t.Errorf("Expected mean near 100, got %.1f", r)
	}
}

func TestDitherNaNAbortsPass(t *testing.T) {
	img := imageutil.CreateGradientImage(4, 4)
	d := newBWDitherer(t)
	d.Method = nanMethod{}
	out, err := d.Dither(context.Background(), img)
	if out != nil {
		t.Error("Expected no output from a failed pass")
	}
	var ce *ComparisonError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected ComparisonError, got %v", err)
	}
	if ce.X != 0 || ce.Y != 0 {
		t.Errorf("Expected failure at (0,0), got (%d,%d)", ce.X, ce.Y)
	}
}

func TestDitherInvalidConfig(t *testing.T) {
	img := imageutil.CreateGradientImage(4, 4)
	for _, s := range []float64{0, -0.5, 1.01, math.NaN()} {
		d := newBWDitherer(t)
		d.Strength = s
		if _, err := d.Dither(context.Background(), img); !errors.Is(err, ErrInvalidStrength) {
			t.Errorf("strength %v: expected ErrInvalidStrength, got %v", s, err)
		}
	}
	d := newBWDitherer(t)
	d.Palette = nil
	if _, err := d.Dither(context.Background(), img); !errors.Is(err, ErrEmptyPalette) {
		t.Errorf("Expected ErrEmptyPalette, got %v", err)
	}
}

func TestDitherCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newBWDitherer(t).Dither(ctx, imageutil.CreateGradientImage(8, 8))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestParseErrorSpace(t *testing.T) {
	for _, s := range []ErrorSpace{LinearErrorSpace, EncodedErrorSpace} {
		got, err := ParseErrorSpace(s.String())
		if err != nil || got != s {
			t.Errorf("ParseErrorSpace(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseErrorSpace("lab"); err == nil {
		t.Error("Expected error for unknown error space")
	}
}
