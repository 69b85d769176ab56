package preview

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample scales img to size x size with CatmullRom filtering. Color is
// premultiplied by alpha before filtering so transparent edges do not darken.
func Downsample(img *image.NRGBA, size int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return img
	}

	premul := image.NewRGBA(b)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		a := uint32(img.Pix[i+3])
		premul.Pix[i] = uint8((uint32(img.Pix[i])*a + 127) / 255)
		premul.Pix[i+1] = uint8((uint32(img.Pix[i+1])*a + 127) / 255)
		premul.Pix[i+2] = uint8((uint32(img.Pix[i+2])*a + 127) / 255)
		premul.Pix[i+3] = img.Pix[i+3]
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	out := image.NewNRGBA(dst.Bounds())
	for i := 0; i+3 < len(dst.Pix); i += 4 {
		a := uint32(dst.Pix[i+3])
		out.Pix[i+3] = dst.Pix[i+3]
		if a == 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = uint8(min(255, (uint32(dst.Pix[i+c])*255+a/2)/a))
		}
	}
	return out
}
