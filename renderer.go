package labdither

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/wbrown/labdither/imageutil"
)

// Renderer runs the whole conversion: optional upscale, dither pass,
// downscale back to the source size. One Renderer holds one palette and
// configuration and can be reused across images, but it is not safe for
// concurrent use. Use separate Renderers to process images in parallel.
type Renderer struct {
	// Configuration options
	Palette     Palette
	ColorMethod ColorDistanceMethod
	Strength    float64
	ScaleFactor float64
	UpFilter    imageutil.Filter
	DownFilter  imageutil.Filter
	Resampler   imageutil.Resampler
	ErrorSpace  ErrorSpace

	logger *slog.Logger
	optErr error
	stats  Stats
}

// Stats describes the most recent Render call.
type Stats struct {
	Width, Height         int
	WorkWidth, WorkHeight int
	UpscaleTime           time.Duration
	DitherTime            time.Duration
	DownscaleTime         time.Duration

	// Usage counts how many working pixels were assigned each palette
	// entry, indexed like the palette.
	Usage []int
}

// RendererOption is a functional option for configuring a Renderer.
type RendererOption func(*Renderer)

// NewRenderer creates a new Renderer with the given options. Defaults
// follow the reference pipeline: the dracula palette, improved CIEDE2000,
// strength 1.0, a 2x Catmull-Rom upscale and a Lanczos3 downscale with
// golang.org/x/image/draw.
func NewRenderer(opts ...RendererOption) (*Renderer, error) {
	r := &Renderer{
		ColorMethod: ImprovedCIEDE2000Method{},
		Strength:    1.0,
		ScaleFactor: 2.0,
		UpFilter:    imageutil.FilterCatmullRom,
		DownFilter:  imageutil.FilterLanczos3,
		Resampler:   imageutil.DrawResampler{},
		ErrorSpace:  LinearErrorSpace,
	}

	for _, opt := range opts {
		opt(r)
	}
	if r.optErr != nil {
		return nil, r.optErr
	}

	if r.Palette == nil {
		p, err := LoadPalette(DefaultPaletteName)
		if err != nil {
			return nil, err
		}
		r.Palette = p
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) validate() error {
	if len(r.Palette) == 0 {
		return ErrEmptyPalette
	}
	if !(r.Strength > 0 && r.Strength <= 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidStrength, r.Strength)
	}
	if !(r.ScaleFactor >= 1) || math.IsInf(r.ScaleFactor, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidScale, r.ScaleFactor)
	}
	if r.ColorMethod == nil {
		return fmt.Errorf("no color distance method")
	}
	if r.Resampler == nil {
		return fmt.Errorf("no resampler")
	}
	return nil
}

// WithPalette sets the palette directly.
func WithPalette(p Palette) RendererOption {
	return func(r *Renderer) {
		if len(p) == 0 {
			r.optErr = ErrEmptyPalette
			return
		}
		r.Palette = p
	}
}

// WithPaletteName loads a palette with LoadPalette.
func WithPaletteName(name string) RendererOption {
	return func(r *Renderer) {
		p, err := LoadPalette(name)
		if err != nil {
			r.optErr = err
			return
		}
		r.Palette = p
	}
}

// WithColorMethod sets the color distance calculation method.
func WithColorMethod(method ColorDistanceMethod) RendererOption {
	return func(r *Renderer) {
		r.ColorMethod = method
	}
}

// WithStrength sets the share of quantization error carried forward,
// in (0, 1].
func WithStrength(s float64) RendererOption {
	return func(r *Renderer) {
		r.Strength = s
	}
}

// WithScaleFactor sets how much the image is enlarged before dithering.
// 1 disables the upscale/downscale bracket.
func WithScaleFactor(factor float64) RendererOption {
	return func(r *Renderer) {
		r.ScaleFactor = factor
	}
}

// WithUpFilter sets the filter used to enlarge the source.
func WithUpFilter(f imageutil.Filter) RendererOption {
	return func(r *Renderer) {
		r.UpFilter = f
	}
}

// WithDownFilter sets the filter used to shrink the dithered result.
func WithDownFilter(f imageutil.Filter) RendererOption {
	return func(r *Renderer) {
		r.DownFilter = f
	}
}

// WithResampler sets the resize implementation.
func WithResampler(rs imageutil.Resampler) RendererOption {
	return func(r *Renderer) {
		r.Resampler = rs
	}
}

// WithErrorSpace selects what the working buffer holds.
func WithErrorSpace(s ErrorSpace) RendererOption {
	return func(r *Renderer) {
		r.ErrorSpace = s
	}
}

// WithLogger sets the logger for this Renderer instead of the package
// logger.
func WithLogger(l *slog.Logger) RendererOption {
	return func(r *Renderer) {
		r.logger = l
	}
}

func (r *Renderer) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return Logger()
}

// scaledSize returns the working size for a source dimension.
func (r *Renderer) scaledSize(n int) int {
	return max(int(math.Round(float64(n)*r.ScaleFactor)), 1)
}

// Render converts img and returns a result of the same size. img is not
// modified. Without the upscale bracket (ScaleFactor 1) every output pixel
// is a palette color; with it the downscale filter blends them.
func (r *Renderer) Render(ctx context.Context, img *imageutil.RGBAImage) (*imageutil.RGBAImage, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	log := r.log()
	width, height := img.Width(), img.Height()
	stats := Stats{Width: width, Height: height, WorkWidth: width, WorkHeight: height}
	bracket := r.ScaleFactor != 1 && width > 0 && height > 0

	work := img
	if bracket {
		stats.WorkWidth, stats.WorkHeight = r.scaledSize(width), r.scaledSize(height)
		log.Info("upscaling",
			"from", fmt.Sprintf("%dx%d", width, height),
			"to", fmt.Sprintf("%dx%d", stats.WorkWidth, stats.WorkHeight),
			"filter", r.UpFilter)
		start := time.Now()
		var err error
		work, err = r.Resampler.Resize(img, stats.WorkWidth, stats.WorkHeight, r.UpFilter)
		if err != nil {
			return nil, fmt.Errorf("upscale: %w", err)
		}
		stats.UpscaleTime = time.Since(start)
	}

	d := &Ditherer{
		Palette:  r.Palette,
		Method:   r.ColorMethod,
		Strength: r.Strength,
		Space:    r.ErrorSpace,
	}
	log.Info("dithering",
		"size", fmt.Sprintf("%dx%d", stats.WorkWidth, stats.WorkHeight),
		"colors", len(r.Palette),
		"method", r.ColorMethod.Name(),
		"strength", r.Strength,
		"errorspace", r.ErrorSpace)
	start := time.Now()
	out, err := d.Dither(ctx, work)
	if err != nil {
		return nil, err
	}
	stats.DitherTime = time.Since(start)
	stats.Usage = r.usage(out)
	log.Debug("dithering completed", "elapsed", stats.DitherTime, "usage", stats.Usage)

	if bracket {
		log.Info("downscaling",
			"to", fmt.Sprintf("%dx%d", width, height),
			"filter", r.DownFilter)
		start := time.Now()
		out, err = r.Resampler.Resize(out, width, height, r.DownFilter)
		if err != nil {
			return nil, fmt.Errorf("downscale: %w", err)
		}
		stats.DownscaleTime = time.Since(start)
	}

	r.stats = stats
	return out, nil
}

// usage counts palette assignments in a dithered image.
func (r *Renderer) usage(img *imageutil.RGBAImage) []int {
	counts := make([]int, len(r.Palette))
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			if i := r.Palette.IndexOf(rgbFromPixel(img.GetRGB(x, y))); i >= 0 {
				counts[i]++
			}
		}
	}
	return counts
}

// ProcessFile loads inPath, renders it and saves the result to outPath.
// Nothing is written unless every stage succeeds.
func (r *Renderer) ProcessFile(ctx context.Context, inPath, outPath string) error {
	log := r.log()

	img, err := imageutil.LoadImage(inPath)
	if err != nil {
		return &ImageLoadError{Path: inPath, Err: err}
	}
	log.Info("loaded image", "path", inPath,
		"size", fmt.Sprintf("%dx%d", img.Width(), img.Height()))

	out, err := r.Render(ctx, img)
	if err != nil {
		return err
	}

	if err := imageutil.SaveImage(out.RGBA, outPath); err != nil {
		return &ImageSaveError{Path: outPath, Err: err}
	}
	log.Info("saved image", "path", outPath)
	return nil
}

// Stats returns statistics for the most recent successful Render.
func (r *Renderer) Stats() Stats {
	return r.stats
}
