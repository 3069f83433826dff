package media

import (
	"context"
	"fmt"
	"strings"

	"twitt/internal/observability"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stored describes a post image after it has been written to a Store.
type Stored struct {
	Key     string
	WebPKey string
	URL     string
	Hash    string
	Width   int
	Height  int
}

// Uploader normalizes an upload and writes both encodings to a Store.
type Uploader struct {
	processor *Processor
	store     Store
}

// NewUploader wires a processor to a store.
func NewUploader(processor *Processor, store Store) *Uploader {
	return &Uploader{processor: processor, store: store}
}

// Upload stores the normalized JPEG at posts/<owner>/<id>.jpg with a WebP
// sibling. Every call gets a fresh key so posts never share an object.
func (u *Uploader) Upload(ctx context.Context, ownerID uuid.UUID, data []byte) (*Stored, error) {
	img, err := u.processor.Normalize(data)
	if err != nil {
		return nil, err
	}

	base := fmt.Sprintf("posts/%s/%s", ownerID, uuid.NewString())
	jpgKey, webpKey := base+".jpg", base+".webp"

	if err := u.store.Put(ctx, jpgKey, img.JPEG, "image/jpeg"); err != nil {
		return nil, err
	}
	if err := u.store.Put(ctx, webpKey, img.WebP, "image/webp"); err != nil {
		_ = u.store.Delete(ctx, jpgKey)
		return nil, err
	}
	observability.MediaUploadBytes.Observe(float64(len(img.JPEG)))

	return &Stored{
		Key:     jpgKey,
		WebPKey: webpKey,
		URL:     u.store.URL(jpgKey),
		Hash:    img.Hash,
		Width:   img.Width,
		Height:  img.Height,
	}, nil
}

// Remove deletes a stored image and its WebP sibling. Failures are logged only.
func (u *Uploader) Remove(ctx context.Context, key string) {
	if key == "" {
		return
	}
	keys := []string{key}
	if strings.HasSuffix(key, ".jpg") {
		keys = append(keys, strings.TrimSuffix(key, ".jpg")+".webp")
	}
	for _, k := range keys {
		if err := u.store.Delete(ctx, k); err != nil {
			observability.FromContext(ctx).Warn("failed to remove media object", zap.String("key", k), zap.Error(err))
		}
	}
}
