package labdither

import (
	"fmt"
	"math"
	"strings"
)

// ColorDistanceMethod measures the perceptual difference between two Lab
// colors. Smaller is closer. Implementations must be deterministic and
// must not special-case non-finite input.
type ColorDistanceMethod interface {
	Distance(a, b Lab) float64
	Name() string
}

// CIE76Method is plain Euclidean distance in Lab.
type CIE76Method struct{}

func (CIE76Method) Distance(a, b Lab) float64 {
	dl, da, db := a.L-b.L, a.A-b.A, a.B-b.B
	return math.Sqrt(dl*dl + da*da + db*db)
}

func (CIE76Method) Name() string { return "cie76" }

// CIEDE2000Method is the CIEDE2000 color difference with kL = kC = kH = 1.
type CIEDE2000Method struct{}

func (CIEDE2000Method) Distance(a, b Lab) float64 { return ciede2000(a, b) }

func (CIEDE2000Method) Name() string { return "ciede2000" }

// ImprovedCIEDE2000Method applies the power-function correction
// 1.43 * dE00^0.7 to CIEDE2000. The correction is monotonic, so the
// nearest color is the same as for CIEDE2000 except where NaN is involved.
type ImprovedCIEDE2000Method struct{}

func (ImprovedCIEDE2000Method) Distance(a, b Lab) float64 {
	return 1.43 * math.Pow(ciede2000(a, b), 0.7)
}

func (ImprovedCIEDE2000Method) Name() string { return "ciede2000i" }

// MethodByName returns the color distance method with the given name.
func MethodByName(name string) (ColorDistanceMethod, error) {
	switch strings.ToLower(name) {
	case "ciede2000i", "improved":
		return ImprovedCIEDE2000Method{}, nil
	case "ciede2000", "de2000":
		return CIEDE2000Method{}, nil
	case "cie76", "lab":
		return CIE76Method{}, nil
	}
	return nil, fmt.Errorf("unknown color distance method %q", name)
}

// 25^7
const pow25to7 = 6103515625.0

func deg2rad(d float64) float64 { return d * math.Pi / 180 }

// hueAngle returns atan2(b, a) in degrees in [0, 360), with 0 for the
// achromatic case.
func hueAngle(b, a float64) float64 {
	if a == 0 && b == 0 {
		return 0
	}
	h := math.Atan2(b, a) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	return h
}

// ciede2000 follows Sharma, Wu and Dalal, "The CIEDE2000 Color-Difference
// Formula: Implementation Notes, Supplementary Test Data, and Mathematical
// Observations" (2005).
func ciede2000(x, y Lab) float64 {
	c1 := math.Hypot(x.A, x.B)
	c2 := math.Hypot(y.A, y.B)
	cBar7 := math.Pow((c1+c2)/2, 7)
	g := 0.5 * (1 - math.Sqrt(cBar7/(cBar7+pow25to7)))

	a1 := (1 + g) * x.A
	a2 := (1 + g) * y.A
	c1p := math.Hypot(a1, x.B)
	c2p := math.Hypot(a2, y.B)
	h1p := hueAngle(x.B, a1)
	h2p := hueAngle(y.B, a2)

	dLp := y.L - x.L
	dCp := c2p - c1p

	var dhp float64
	switch {
	case c1p*c2p == 0:
		dhp = 0
	case math.Abs(h2p-h1p) <= 180:
		dhp = h2p - h1p
	case h2p-h1p > 180:
		dhp = h2p - h1p - 360
	default:
		dhp = h2p - h1p + 360
	}
	dHp := 2 * math.Sqrt(c1p*c2p) * math.Sin(deg2rad(dhp/2))

	lBarP := (x.L + y.L) / 2
	cBarP := (c1p + c2p) / 2

	var hBarP float64
	switch {
	case c1p*c2p == 0:
		hBarP = h1p + h2p
	case math.Abs(h1p-h2p) <= 180:
		hBarP = (h1p + h2p) / 2
	case h1p+h2p < 360:
		hBarP = (h1p + h2p + 360) / 2
	default:
		hBarP = (h1p + h2p - 360) / 2
	}

	t := 1 -
		0.17*math.Cos(deg2rad(hBarP-30)) +
		0.24*math.Cos(deg2rad(2*hBarP)) +
		0.32*math.Cos(deg2rad(3*hBarP+6)) -
		0.20*math.Cos(deg2rad(4*hBarP-63))

	dTheta := 30 * math.Exp(-math.Pow((hBarP-275)/25, 2))
	cBarP7 := math.Pow(cBarP, 7)
	rc := 2 * math.Sqrt(cBarP7/(cBarP7+pow25to7))

	l50 := (lBarP - 50) * (lBarP - 50)
	sl := 1 + 0.015*l50/math.Sqrt(20+l50)
	sc := 1 + 0.045*cBarP
	sh := 1 + 0.015*cBarP*t
	rt := -math.Sin(deg2rad(2*dTheta)) * rc

	dl := dLp / sl
	dc := dCp / sc
	dh := dHp / sh
	return math.Sqrt(dl*dl + dc*dc + dh*dh + rt*dc*dh)
}
