package blob

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"fleet/internal/config"

	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	key := Key("acme", "certificates", `C:\scans\class cert.pdf`)
	require.True(t, strings.HasPrefix(key, "acme/certificates/"), key)
	require.True(t, strings.HasSuffix(key, "-class_cert.pdf"), key)
	require.Len(t, strings.Split(key, "/"), 3)

	require.True(t, strings.HasSuffix(Key("acme", "ships", ""), "-file"))
	require.NotEqual(t, Key("acme", "ships", "a.png"), Key("acme", "ships", "a.png"))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore("https://files.example")
	ctx := context.Background()

	url, err := s.Put(ctx, "acme/ships/1-a.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	require.Equal(t, "https://files.example/acme/ships/1-a.png", url)

	data, ct, ok := s.Object("acme/ships/1-a.png")
	require.True(t, ok)
	require.Equal(t, "png", string(data))
	require.Equal(t, "image/png", ct)

	_, err = s.Put(ctx, "acme/ships/1-a.png", strings.NewReader("again"), "")
	require.Error(t, err)

	require.NoError(t, s.Delete(ctx, "acme/ships/1-a.png"))
	require.ErrorIs(t, s.Delete(ctx, "acme/ships/1-a.png"), ErrNotFound)
}

// fakeS3 answers path-style PUT and DELETE object requests.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.TrimPrefix(req.URL.Path, "/")
	empty := func(code int) *http.Response {
		return &http.Response{StatusCode: code, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}
	}
	switch req.Method {
	case http.MethodPut:
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		f.objects[key] = body
		f.types[key] = req.Header.Get("Content-Type")
		resp := empty(http.StatusOK)
		resp.Header.Set("ETag", `"etag"`)
		return resp, nil
	case http.MethodDelete:
		delete(f.objects, key)
		return empty(http.StatusNoContent), nil
	}
	return empty(http.StatusNotImplemented), nil
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	ctx := context.Background()
	s, err := NewS3Store(ctx, S3Config{
		Bucket:          "fleet",
		Endpoint:        "https://minio.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		HTTPClient:      fake,
	})
	require.NoError(t, err)

	url, err := s.Put(ctx, "acme/drawings/1-ga.pdf", bytes.NewReader([]byte("%PDF")), "application/pdf")
	require.NoError(t, err)
	require.Equal(t, "https://minio.local/fleet/acme/drawings/1-ga.pdf", url)
	require.Equal(t, "%PDF", string(fake.objects["fleet/acme/drawings/1-ga.pdf"]))
	require.Equal(t, "application/pdf", fake.types["fleet/acme/drawings/1-ga.pdf"])

	require.NoError(t, s.Delete(ctx, "acme/drawings/1-ga.pdf"))
	require.Empty(t, fake.objects)
}

func TestS3StoreConfig(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	require.Error(t, err)

	require.Equal(t, "https://fleet.s3.eu-west-1.amazonaws.com", publicBase(S3Config{Bucket: "fleet"}, "eu-west-1"))
	require.Equal(t, "https://cdn.example", publicBase(S3Config{Bucket: "fleet", PublicURL: "https://cdn.example"}, "eu-west-1"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.BlobConfig{Driver: "memory"})
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, config.BlobConfig{Driver: "s3", Bucket: "fleet", Region: "eu-west-1"})
	require.NoError(t, err)
	require.IsType(t, &S3Store{}, s)

	_, err = Open(ctx, config.BlobConfig{Driver: "gcs"})
	require.ErrorContains(t, err, `unknown blob driver "gcs"`)
}
