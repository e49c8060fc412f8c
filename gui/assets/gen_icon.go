//go:build ignore

package main

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
)

func main() {
	const size = 22
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	keyface := color.RGBA{28, 28, 28, 255}
	ring := color.RGBA{0, 215, 135, 255}
	glyph := color.RGBA{235, 235, 235, 255}

	center := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) - center + 0.5
			dy := float64(y) - center + 0.5
			dist := math.Sqrt(dx*dx + dy*dy)

			if dist < 7 {
				img.Set(x, y, keyface)
			} else if dist < 9 {
				img.Set(x, y, ring)
			} else if dist < 10 {
				// Border
				img.Set(x, y, color.RGBA{10, 60, 40, 255})
			}
			// else transparent
		}
	}

	// Caps lock glyph: up arrow over a base bar
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx := float64(x) - center + 0.5
			fy := float64(y) - center + 0.5

			head := fy >= -4.5 && fy < 0 && math.Abs(fx) <= (fy+4.5)*0.9
			stem := fy >= 0 && fy < 2.5 && math.Abs(fx) <= 1.2
			base := fy >= 3 && fy < 4.5 && math.Abs(fx) <= 1.8
			if head || stem || base {
				img.Set(x, y, glyph)
			}
		}
	}

	f, _ := os.Create("tray.png")
	defer f.Close()
	png.Encode(f, img)
}
