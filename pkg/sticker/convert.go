// Package sticker turns arbitrary uploaded images into WhatsApp sticker
// payloads: a 512x512 WebP with the source scaled to fit and the remaining
// area left fully transparent.
package sticker

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/gen2brain/webp"
	"github.com/sunshineplan/imgconv"
)

const (
	// Size is the edge length of every sticker canvas.
	Size = 512
	// MimeType of encoded stickers.
	MimeType = "image/webp"
	// MaxBytes is the WhatsApp ceiling for a static sticker.
	MaxBytes = 100 * 1024
)

// qualitySteps are tried in order until the encoding fits in MaxBytes.
var qualitySteps = []int{80, 65, 50, 35, 20}

var ErrEmptyImage = errors.New("image has no pixels")

// Convert decodes data, scales it to fit a Size x Size square preserving
// aspect ratio, centers it on a transparent canvas and encodes it as lossy
// WebP no larger than MaxBytes when any quality step allows it.
func Convert(data []byte) ([]byte, error) {
	src, err := imgconv.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	canvas, err := Fit(src)
	if err != nil {
		return nil, err
	}

	return Encode(canvas, MaxBytes)
}

// Encode writes img as lossy WebP, lowering quality until the output fits
// in budget. The last step is returned even when it is still over budget.
func Encode(img image.Image, budget int) ([]byte, error) {
	var out []byte
	for _, quality := range qualitySteps {
		buf := new(bytes.Buffer)
		if err := webp.Encode(buf, img, webp.Options{Quality: quality, Method: 4}); err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
		out = buf.Bytes()
		if budget <= 0 || len(out) <= budget {
			break
		}
	}
	return out, nil
}

// Fit returns src contained in a transparent Size x Size canvas.
func Fit(src image.Image) (*image.NRGBA, error) {
	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, ErrEmptyImage
	}

	width, height := fitDimensions(bounds.Dx(), bounds.Dy(), Size)
	scaled := src
	if width != bounds.Dx() || height != bounds.Dy() {
		scaled = imgconv.Resize(src, &imgconv.ResizeOption{Width: width, Height: height})
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, Size, Size))
	offset := image.Pt((Size-width)/2, (Size-height)/2)
	target := image.Rectangle{Min: offset, Max: offset.Add(image.Pt(width, height))}
	draw.Draw(canvas, target, scaled, scaled.Bounds().Min, draw.Over)
	return canvas, nil
}

// fitDimensions scales (w, h) so the longer side equals edge. The shorter
// side is rounded and never drops below one pixel.
func fitDimensions(w, h, edge int) (int, int) {
	if w >= h {
		scaled := (h*edge + w/2) / w
		if scaled < 1 {
			scaled = 1
		}
		return edge, scaled
	}
	scaled := (w*edge + h/2) / h
	if scaled < 1 {
		scaled = 1
	}
	return scaled, edge
}
