// Command labdither reduces an image to a fixed palette with perceptual
// error diffusion dithering.
//
// Usage:
//
//	labdither -input photo.jpg -output out.png [-palette dracula] [-strength 1.0]
//	labdither -palette pico8 -swatch pico8.png
//	labdither -list-palettes
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/wbrown/labdither"
	"github.com/wbrown/labdither/imageutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "labdither: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("labdither", flag.ContinueOnError)
	fs.SetOutput(stderr)

	inputFile := fs.String("input", "",
		"Path to the input image file (required)")
	outputFile := fs.String("output", "output.png",
		"Path to save the output; format follows the extension")
	paletteName := fs.String("palette", labdither.DefaultPaletteName,
		"Palette name or path to a JSON palette file "+
			"(Embedded: "+strings.Join(labdither.PaletteNames(), ", ")+")")
	strength := fs.Float64("strength", 1.0,
		"Share of quantization error carried to neighbors, in (0, 1]")
	scale := fs.Float64("scale", 2.0,
		"Upscale factor before dithering, 1 to disable")
	colorMethod := fs.String("method", "ciede2000i",
		"Color distance method: ciede2000i, ciede2000, or cie76")
	upFilter := fs.String("upfilter", "catmullrom",
		"Upscale filter: catmullrom, lanczos3, bilinear, or nearest")
	downFilter := fs.String("downfilter", "lanczos3",
		"Downscale filter: catmullrom, lanczos3, bilinear, or nearest")
	resampler := fs.String("resampler", "draw",
		"Resize implementation: draw or gift")
	errorSpace := fs.String("errorspace", "linear",
		"Working buffer contents: linear or encoded")
	swatchFile := fs.String("swatch", "",
		"Write a preview of the palette to this path and exit")
	listPalettes := fs.Bool("list-palettes", false,
		"Print the embedded palette names and exit")
	verbose := fs.Bool("v", false, "Verbose (debug) logging")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *listPalettes {
		for _, name := range labdither.PaletteNames() {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	palette, err := labdither.LoadPalette(*paletteName)
	if err != nil {
		return err
	}

	if *swatchFile != "" {
		img, err := labdither.RenderSwatch(palette, 96)
		if err != nil {
			return err
		}
		if err := imageutil.SaveImage(img, *swatchFile); err != nil {
			return &labdither.ImageSaveError{Path: *swatchFile, Err: err}
		}
		fmt.Fprintf(stdout, "Palette swatch written to %s\n", *swatchFile)
		return nil
	}

	if *inputFile == "" {
		fs.Usage()
		return errors.New("please provide the image using the -input flag")
	}

	method, err := labdither.MethodByName(*colorMethod)
	if err != nil {
		return err
	}
	up, err := imageutil.ParseFilter(*upFilter)
	if err != nil {
		return err
	}
	down, err := imageutil.ParseFilter(*downFilter)
	if err != nil {
		return err
	}
	rs, err := imageutil.ResamplerByName(*resampler)
	if err != nil {
		return err
	}
	space, err := labdither.ParseErrorSpace(*errorSpace)
	if err != nil {
		return err
	}

	r, err := labdither.NewRenderer(
		labdither.WithPalette(palette),
		labdither.WithColorMethod(method),
		labdither.WithStrength(*strength),
		labdither.WithScaleFactor(*scale),
		labdither.WithUpFilter(up),
		labdither.WithDownFilter(down),
		labdither.WithResampler(rs),
		labdither.WithErrorSpace(space),
		labdither.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := r.ProcessFile(ctx, *inputFile, *outputFile); err != nil {
		return err
	}

	st := r.Stats()
	fmt.Fprintf(stdout, "Processed %dx%d image at %dx%d in %v (dither %v)\n",
		st.Width, st.Height, st.WorkWidth, st.WorkHeight,
		time.Since(start).Round(time.Millisecond),
		st.DitherTime.Round(time.Millisecond))
	fmt.Fprintf(stdout, "Output written to %s\n", *outputFile)
	return nil
}
