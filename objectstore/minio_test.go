package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/amirrezaask/highlight/errors"
	"github.com/matryer/is"
)

const seedJSON = `{"nodes":[{"id":"a"},{"id":"b"}]}`

// fakeS3 answers the handful of path-style requests the client makes.
func fakeS3(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && strings.HasPrefix(r.URL.Path, "/missing"):
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet && r.URL.Path == "/seeds/graph.json":
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Content-Length", strconv.Itoa(len(seedJSON)))
			w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
			io.WriteString(w, seedJSON)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestMinioGet(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	m, err := NewMinio(ctx, Config{Endpoint: fakeS3(t), AccessKey: "key", SecretKey: "secret", Bucket: "seeds"})
	is.NoErr(err)
	is.Equal(m.Bucket(), "seeds")

	obj, err := m.Get(ctx, "graph.json")
	is.NoErr(err)
	defer obj.Close()
	bs, err := io.ReadAll(obj)
	is.NoErr(err)
	is.Equal(string(bs), seedJSON)
}

func TestMinioGetMissingObject(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	m, err := NewMinio(ctx, Config{Endpoint: fakeS3(t), AccessKey: "key", SecretKey: "secret", Bucket: "seeds"})
	is.NoErr(err)

	_, err = m.Get(ctx, "nope.json")
	is.Equal(errors.KindOf(err), errors.KindNotFound)
}

func TestMinioMissingBucket(t *testing.T) {
	is := is.New(t)
	_, err := NewMinio(context.Background(), Config{Endpoint: fakeS3(t), AccessKey: "key", SecretKey: "secret", Bucket: "missing"})
	is.Equal(errors.KindOf(err), errors.KindNotFound)
}
