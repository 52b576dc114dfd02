package httpds

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_Open(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/odis_json.zip" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("PK"))
	}))
	defer srv.Close()

	c := NewClient(Config{})

	t.Run("ok", func(t *testing.T) {
		src := NewSource(c, srv.URL+"/odis_json.zip")
		rc, err := src.Open(context.Background())
		require.NoError(t, err)
		defer rc.Close()
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "PK", string(b))
	})

	t.Run("not found", func(t *testing.T) {
		src := NewSource(c, srv.URL+"/missing.zip")
		_, err := src.Open(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})
}
