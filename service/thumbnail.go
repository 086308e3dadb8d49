package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/Hmmmm3247/ContractGuard/model"
)

const thumbnailMaxSide = 240

// Accepted upload types, as sniffed from content.
const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeWEBP = "image/webp"
	MimePDF  = "application/pdf"
)

// MakeThumbnail returns a JPEG data URL no larger than 240px on its longest
// side, or the PDF marker for non-image documents.
func MakeThumbnail(raw []byte, mimeType string) (string, error) {
	if mimeType == MimePDF {
		return model.ThumbnailPDF, nil
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return "", fmt.Errorf("empty image")
	}
	if w > thumbnailMaxSide || h > thumbnailMaxSide {
		if w >= h {
			h = max(1, h*thumbnailMaxSide/w)
			w = thumbnailMaxSide
		} else {
			w = max(1, w*thumbnailMaxSide/h)
			h = thumbnailMaxSide
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
