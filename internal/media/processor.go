// Package media normalizes uploaded post images and stores them locally or in S3.
package media

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"net/http"

	"twitt/internal/models"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	MaxDimension       = 2048
	JPEGQuality        = 82
	WebPQuality        = 70
	DefaultMaxUploadMB = 10
)

var allowedRatios = []struct {
	name  string
	ratio float64
}{
	{name: "landscape", ratio: 1.91},
	{name: "square", ratio: 1.0},
	{name: "portrait", ratio: 0.8},
}

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Normalized is a decoded upload re-encoded to the canonical formats.
type Normalized struct {
	JPEG     []byte
	WebP     []byte
	Width    int
	Height   int
	CropMode string
	Hash     string
}

// Processor validates and normalizes uploaded images.
type Processor struct {
	maxBytes int64
}

// NewProcessor returns a Processor that rejects uploads above maxUploadMB.
func NewProcessor(maxUploadMB int) *Processor {
	if maxUploadMB <= 0 {
		maxUploadMB = DefaultMaxUploadMB
	}
	return &Processor{maxBytes: int64(maxUploadMB) * 1024 * 1024}
}

// MaxBytes is the upload limit in bytes.
func (p *Processor) MaxBytes() int64 {
	return p.maxBytes
}

// Normalize center-crops the image to the closest allowed aspect ratio,
// bounds it to MaxDimension and encodes JPEG and WebP copies.
func (p *Processor) Normalize(data []byte) (*Normalized, error) {
	if len(data) == 0 {
		return nil, models.ErrImageRequired
	}
	if int64(len(data)) > p.maxBytes {
		return nil, models.NewValidationError("image", fmt.Sprintf("Image must not exceed %dMB.", p.maxBytes/(1024*1024)))
	}
	if !allowedMIME[http.DetectContentType(data)] {
		return nil, models.ErrImageInvalid
	}

	decoded, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, models.ErrImageInvalid
	}

	b := decoded.Bounds()
	mode, w, h := cropBox(b.Dx(), b.Dy())
	cropped := imaging.CropCenter(decoded, w, h)
	master := imaging.Fit(cropped, MaxDimension, MaxDimension, imaging.Lanczos)

	var jpg bytes.Buffer
	if err := imaging.Encode(&jpg, master, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	var wp bytes.Buffer
	if err := webp.Encode(&wp, master, &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}

	sum := sha256.Sum256(jpg.Bytes())
	mb := master.Bounds()
	return &Normalized{
		JPEG:     jpg.Bytes(),
		WebP:     wp.Bytes(),
		Width:    mb.Dx(),
		Height:   mb.Dy(),
		CropMode: mode,
		Hash:     hex.EncodeToString(sum[:]),
	}, nil
}

// cropBox picks the allowed ratio closest to w/h and returns the largest
// centered box of that ratio fitting inside w x h.
func cropBox(w, h int) (string, int, int) {
	if w <= 0 || h <= 0 {
		return "square", w, h
	}
	src := float64(w) / float64(h)

	best := allowedRatios[0]
	for _, r := range allowedRatios[1:] {
		if math.Abs(math.Log(src/r.ratio)) < math.Abs(math.Log(src/best.ratio)) {
			best = r
		}
	}

	cw, ch := w, h
	if src > best.ratio {
		cw = int(math.Round(float64(h) * best.ratio))
	} else {
		ch = int(math.Round(float64(w) / best.ratio))
	}
	return best.name, max(cw, 1), max(ch, 1)
}

