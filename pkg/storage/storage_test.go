package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSave(t *testing.T) {
	dir := t.TempDir()
	st, err := New(context.Background(), Config{Type: "local", LocalPath: dir})
	require.NoError(t, err)

	loc, err := st.Save(context.Background(), "performance/2024-03-01.xlsx", "application/octet-stream", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "performance", "2024-03-01.xlsx"), loc)

	got, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestLocalRejectsEscapingKeys(t *testing.T) {
	st, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../secret", "a/../../b"} {
		_, err := st.Save(context.Background(), key, "", nil)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestUnknownType(t *testing.T) {
	_, err := New(context.Background(), Config{Type: "ftp"})
	assert.Error(t, err)
}

func TestS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), Config{AWSRegion: "us-east-1"})
	assert.Error(t, err)
}

func TestS3Save(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st, err := New(context.Background(), Config{
		Type:               "s3",
		AWSRegion:          "us-east-1",
		AWSAccessKeyID:     "test",
		AWSSecretAccessKey: "test",
		S3Bucket:           "reports",
		S3Prefix:           "/tenant-1/",
		S3Endpoint:         srv.URL,
	})
	require.NoError(t, err)

	loc, err := st.Save(context.Background(), "performance.csv", "text/csv", []byte("team,calls\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3://reports/tenant-1/performance.csv", loc)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/reports/tenant-1/performance.csv", path)
	assert.Contains(t, body, "team,calls")
}
