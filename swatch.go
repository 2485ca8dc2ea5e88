package labdither

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/freetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

// swatchColumns is the number of tiles per swatch row.
const swatchColumns = 8

// RenderSwatch draws the palette as a grid of cell x cell tiles in palette
// order, each labelled with its hex code in black or white, whichever
// reads better against the tile.
func RenderSwatch(p Palette, cell int) (*image.RGBA, error) {
	if len(p) == 0 {
		return nil, ErrEmptyPalette
	}
	if cell < 16 {
		return nil, fmt.Errorf("swatch cell size %d is too small, need at least 16", cell)
	}

	ttf, err := freetype.ParseFont(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	cols := min(len(p), swatchColumns)
	rows := (len(p) + cols - 1) / cols
	img := image.NewRGBA(image.Rect(0, 0, cols*cell, rows*cell))

	// Seven characters of a monospace font at 0.6em each fill ~80% of a tile.
	size := float64(cell) * 0.8 / (7 * 0.6)

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(ttf)
	c.SetFontSize(size)
	c.SetClip(img.Bounds())
	c.SetDst(img)
	c.SetHinting(font.HintingFull)

	for i, e := range p {
		x0, y0 := (i%cols)*cell, (i/cols)*cell
		tile := image.Rect(x0, y0, x0+cell, y0+cell)
		draw.Draw(img, tile, image.NewUniform(e.RGB.ToColor()), image.Point{}, draw.Src)

		c.SetSrc(image.NewUniform(labelColor(e)))
		pt := freetype.Pt(x0+cell/10, y0+cell/2+int(size/3))
		if _, err := c.DrawString(e.Hex, pt); err != nil {
			return nil, fmt.Errorf("failed to draw label %s: %w", e.Hex, err)
		}
	}
	return img, nil
}

func labelColor(e PaletteEntry) color.Color {
	if e.Lab.L > 50 {
		return color.Black
	}
	return color.White
}
