package render

import "image"

// Grayscale converts img in place to luminance 0.3R + 0.59G + 0.11B,
// leaving alpha untouched.
func Grayscale(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i+3 < len(row); i += 4 {
			l := luminance(row[i], row[i+1], row[i+2])
			row[i], row[i+1], row[i+2] = l, l, l
		}
	}
}

func luminance(r, g, b uint8) uint8 {
	v := 0.3*float64(r) + 0.59*float64(g) + 0.11*float64(b) + 0.5
	if v > 255 {
		return 255
	}
	return uint8(v)
}
