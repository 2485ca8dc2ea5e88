package labdither

import (
	"embed"
	"encoding/json"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed colordata/*.json
var f embed.FS

// DefaultPaletteName is the palette used when none is configured.
const DefaultPaletteName = "dracula"

// PaletteEntry pairs the Lab value used for comparison with the RGB value
// written to the output. Both are derived once from the hex string.
type PaletteEntry struct {
	Hex string
	Lab Lab
	RGB RGB
}

// Palette is an ordered list of entries. Order only matters for breaking
// ties in the nearest color search: the earlier entry wins.
type Palette []PaletteEntry

// paletteFile is the on-disk and embedded JSON layout of a palette.
type paletteFile struct {
	Name   string   `json:"name"`
	Colors []string `json:"colors"`
}

// ParseHex parses a "#RRGGBB" or "RRGGBB" color string.
func ParseHex(s string) (RGB, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return RGB{}, &PaletteParseError{
			Value:  s,
			Reason: fmt.Sprintf("want 6 hex digits, got %d characters", len(hex)),
		}
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, &PaletteParseError{Value: s, Reason: "not a hex number"}
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// NewPalette builds a palette from an ordered list of hex color strings.
func NewPalette(hexes []string) (Palette, error) {
	if len(hexes) == 0 {
		return nil, ErrEmptyPalette
	}
	p := make(Palette, 0, len(hexes))
	for _, h := range hexes {
		rgb, err := ParseHex(h)
		if err != nil {
			return nil, err
		}
		p = append(p, PaletteEntry{
			Hex: rgb.String(),
			Lab: LinearToLab(SRGBByteToLinear(rgb)),
			RGB: rgb,
		})
	}
	return p, nil
}

// MustPalette is like NewPalette but panics on error. It is meant for
// palettes written into source code.
func MustPalette(hexes ...string) Palette {
	p, err := NewPalette(hexes)
	if err != nil {
		panic(err)
	}
	return p
}

// LoadPalette loads a palette by name. Embedded palettes (see
// PaletteNames) are tried first, then name is read as a JSON file from the
// filesystem.
func LoadPalette(name string) (Palette, error) {
	data, vfsErr := f.ReadFile(path.Join("colordata", name+".json"))
	if vfsErr != nil {
		var fsErr error
		data, fsErr = os.ReadFile(name)
		if fsErr != nil {
			return nil, fmt.Errorf("error reading palette %s: %w", name, fsErr)
		}
	}

	var pf paletteFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("error unmarshalling palette %s: %w", name, err)
	}
	p, err := NewPalette(pf.Colors)
	if err != nil {
		return nil, fmt.Errorf("palette %s: %w", name, err)
	}
	return p, nil
}

// PaletteNames returns the names of the embedded palettes, sorted.
func PaletteNames() []string {
	matches, err := fs.Glob(f, "colordata/*.json")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(path.Base(m), ".json"))
	}
	sort.Strings(names)
	return names
}

// Colors returns the palette as a color.Palette, in order.
func (p Palette) Colors() color.Palette {
	cp := make(color.Palette, len(p))
	for i, e := range p {
		cp[i] = e.RGB.ToColor()
	}
	return cp
}

// IndexOf returns the index of the first entry whose output color is c,
// or -1.
func (p Palette) IndexOf(c RGB) int {
	for i, e := range p {
		if e.RGB == c {
			return i
		}
	}
	return -1
}
