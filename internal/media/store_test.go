package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"twitt/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func httpType(b []byte) string {
	return http.DetectContentType(b)
}

func TestLocalStore_PutDeleteURL(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "posts/a/b.jpg", []byte("jpeg"), "image/jpeg"))
	got, err := os.ReadFile(filepath.Join(dir, "posts", "a", "b.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(got))
	assert.Equal(t, "/media/posts/a/b.jpg", store.URL("posts/a/b.jpg"))

	require.NoError(t, store.Delete(ctx, "posts/a/b.jpg"))
	require.NoError(t, store.Delete(ctx, "posts/a/b.jpg"), "deleting twice is not an error")
	_, err = os.Stat(filepath.Join(dir, "posts", "a", "b.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/media")
	err := store.Put(context.Background(), "../escape.jpg", []byte("x"), "image/jpeg")
	assert.Error(t, err)
}

func TestUploader_WritesJPEGAndWebP(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "http://cdn.test/media/")
	up := NewUploader(NewProcessor(1), store)
	ctx := context.Background()
	owner := uuid.New()

	stored, err := up.Upload(ctx, owner, pngBytes(t, 80, 40))
	require.NoError(t, err)

	assert.Contains(t, stored.Key, "posts/"+owner.String()+"/")
	assert.Equal(t, "http://cdn.test/media/"+stored.Key, stored.URL)
	assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(stored.Key)))
	assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(stored.WebPKey)))

	up.Remove(ctx, stored.Key)
	assert.NoFileExists(t, filepath.Join(dir, filepath.FromSlash(stored.Key)))
	assert.NoFileExists(t, filepath.Join(dir, filepath.FromSlash(stored.WebPKey)))
}

func TestS3Store_PutAndDelete(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []string
		bodies   []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, r.Method+" "+r.URL.Path)
		bodies = append(bodies, string(body))
		mu.Unlock()
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store, err := NewS3Store(context.Background(), &config.Config{
		S3Endpoint:        srv.URL,
		S3Region:          "us-east-1",
		S3Bucket:          "twitt",
		S3AccessKeyID:     "key",
		S3SecretAccessKey: "secret",
		MediaPublicURL:    "https://cdn.test",
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "posts/x.jpg", []byte("jpeg-bytes"), "image/jpeg"))
	require.NoError(t, store.Delete(ctx, "posts/x.jpg"))
	assert.Equal(t, "https://cdn.test/posts/x.jpg", store.URL("posts/x.jpg"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requests, 2)
	assert.Equal(t, "PUT /twitt/posts/x.jpg", requests[0])
	assert.Equal(t, "DELETE /twitt/posts/x.jpg", requests[1])
	assert.Contains(t, bodies[0], "jpeg-bytes")
}

func TestNewS3Store_RequiresCredentials(t *testing.T) {
	_, err := NewS3Store(context.Background(), &config.Config{S3Bucket: "b"})
	assert.Error(t, err)
}
