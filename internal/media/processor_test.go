package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"twitt/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCropBox(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		wantMode string
		wantW    int
		wantH    int
	}{
		{"Square", 100, 100, "square", 100, 100},
		{"Wide Panorama", 400, 100, "landscape", 191, 100},
		{"Tall", 100, 200, "portrait", 100, 125},
		{"Near Square", 110, 100, "square", 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, w, h := cropBox(tt.w, tt.h)
			assert.Equal(t, tt.wantMode, mode)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestNormalize_EncodesBothFormats(t *testing.T) {
	p := NewProcessor(1)

	out, err := p.Normalize(pngBytes(t, 64, 64))
	require.NoError(t, err)

	assert.Equal(t, 64, out.Width)
	assert.Equal(t, 64, out.Height)
	assert.Equal(t, "square", out.CropMode)
	assert.Len(t, out.Hash, 64)
	assert.Equal(t, "image/jpeg", httpType(out.JPEG))
	assert.NotEmpty(t, out.WebP)

	again, err := p.Normalize(pngBytes(t, 64, 64))
	require.NoError(t, err)
	assert.Equal(t, out.Hash, again.Hash)
}

func TestNormalize_Rejects(t *testing.T) {
	p := NewProcessor(1)

	_, err := p.Normalize(nil)
	assert.ErrorIs(t, err, models.ErrImageRequired)

	_, err = p.Normalize([]byte("definitely not an image"))
	assert.ErrorIs(t, err, models.ErrImageInvalid)

	tooBig := make([]byte, p.MaxBytes()+1)
	_, err = p.Normalize(tooBig)
	appErr, ok := models.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Equal(t, "image", appErr.Item)
}
