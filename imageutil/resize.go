package imageutil

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/disintegration/gift"
	"golang.org/x/image/draw"
)

// Filter specifies the reconstruction filter used when resizing.
type Filter int

const (
	// FilterCatmullRom is a cubic filter, used for upscaling before
	// dithering.
	FilterCatmullRom Filter = iota

	// FilterLanczos3 is a 3-lobe windowed sinc, used for downscaling
	// the dithered result.
	FilterLanczos3

	// FilterBilinear uses bilinear interpolation.
	FilterBilinear

	// FilterNearest uses nearest-neighbor interpolation.
	// Fastest but lowest quality; keeps palette colors intact.
	FilterNearest
)

var filterNames = map[Filter]string{
	FilterCatmullRom: "catmullrom",
	FilterLanczos3:   "lanczos3",
	FilterBilinear:   "bilinear",
	FilterNearest:    "nearest",
}

func (f Filter) String() string {
	if name, ok := filterNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Filter(%d)", int(f))
}

// ParseFilter returns the filter with the given name.
func ParseFilter(name string) (Filter, error) {
	name = strings.ToLower(name)
	for f, n := range filterNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown filter %q", name)
}

// Resampler resizes images. Implementations must not modify img.
type Resampler interface {
	Resize(img *RGBAImage, width, height int, filter Filter) (*RGBAImage, error)
}

// ResamplerByName returns "draw" (golang.org/x/image/draw) or "gift"
// (github.com/disintegration/gift).
func ResamplerByName(name string) (Resampler, error) {
	switch strings.ToLower(name) {
	case "draw", "xdraw":
		return DrawResampler{}, nil
	case "gift":
		return GiftResampler{}, nil
	}
	return nil, fmt.Errorf("unknown resampler %q", name)
}

func checkSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid target size %dx%d", width, height)
	}
	return nil
}

// lanczos3 is the Lanczos kernel with a = 3. x/image/draw only calls At
// with t in [0, Support).
var lanczos3 = &draw.Kernel{
	Support: 3,
	At: func(t float64) float64 {
		if t == 0 {
			return 1
		}
		pt := math.Pi * t
		return 3 * math.Sin(pt) * math.Sin(pt/3) / (pt * pt)
	},
}

// DrawResampler resizes with golang.org/x/image/draw.
type DrawResampler struct{}

// Resize resizes an RGBA image to the specified dimensions using the
// given filter.
func (DrawResampler) Resize(img *RGBAImage, width, height int, filter Filter) (*RGBAImage, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}

	var scaler draw.Scaler
	switch filter {
	case FilterCatmullRom:
		scaler = draw.CatmullRom
	case FilterLanczos3:
		scaler = lanczos3
	case FilterBilinear:
		scaler = draw.BiLinear
	case FilterNearest:
		scaler = draw.NearestNeighbor
	default:
		return nil, fmt.Errorf("unsupported filter %v", filter)
	}

	dst := NewRGBAImage(width, height)
	scaler.Scale(dst.RGBA, dst.Bounds(), img.RGBA, img.Bounds(), draw.Src, nil)
	return dst, nil
}

// GiftResampler resizes with github.com/disintegration/gift.
type GiftResampler struct{}

// Resize resizes an RGBA image to the specified dimensions using the
// given filter.
func (GiftResampler) Resize(img *RGBAImage, width, height int, filter Filter) (*RGBAImage, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}

	var resampling gift.Resampling
	switch filter {
	case FilterCatmullRom:
		resampling = gift.CubicResampling
	case FilterLanczos3:
		resampling = gift.LanczosResampling
	case FilterBilinear:
		resampling = gift.LinearResampling
	case FilterNearest:
		resampling = gift.NearestNeighborResampling
	default:
		return nil, fmt.Errorf("unsupported filter %v", filter)
	}

	g := gift.New(gift.Resize(width, height, resampling))
	dst := image.NewRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img.RGBA)
	return &RGBAImage{RGBA: dst}, nil
}
