package frame

import (
	"fmt"
	"image"
	"image/draw"
)

// Image converts a uint8 frame into an RGBA image.
func (f *Frame) Image() (*image.RGBA, error) {
	if f.DType != Uint8 {
		return nil, fmt.Errorf("cannot convert %s frame to image", f.DType)
	}
	height, width := f.Shape[0], f.Shape[1]
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	src := 0
	for i := 0; i < width*height; i++ {
		dst := i * 4
		img.Pix[dst] = f.Data[src]
		img.Pix[dst+1] = f.Data[src+1]
		img.Pix[dst+2] = f.Data[src+2]
		img.Pix[dst+3] = 0xff
		src += Channels
	}
	return img, nil
}

// FromImage copies any image into a new uint8 RGB frame.
func FromImage(img image.Image) *Frame {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || bounds.Min != (image.Point{}) || rgba.Stride != 4*bounds.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	f := New(Resolution{Width: bounds.Dx(), Height: bounds.Dy()})
	dst := 0
	for i := 0; i < len(rgba.Pix); i += 4 {
		f.Data[dst] = rgba.Pix[i]
		f.Data[dst+1] = rgba.Pix[i+1]
		f.Data[dst+2] = rgba.Pix[i+2]
		dst += Channels
	}
	return f
}
