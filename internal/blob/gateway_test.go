package blob

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	putURL    string
	putErr    error
	gotCT     string
	getURL    string
	deleted   []string
	deleteErr error
}

func (f *fakePresigner) PresignPut(ctx context.Context, path, contentType string) (string, error) {
	f.gotCT = contentType
	return f.putURL, f.putErr
}

func (f *fakePresigner) PresignGet(ctx context.Context, path string) (string, error) {
	return f.getURL + path, nil
}

func (f *fakePresigner) DeleteObject(ctx context.Context, path string) error {
	f.deleted = append(f.deleted, path)
	return f.deleteErr
}

func TestGatewayStore_PutUploadsToPresignedURL(t *testing.T) {
	var body, ct string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		ct = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := &fakePresigner{putURL: srv.URL + "/upload"}
	g := NewGatewayStore(p, srv.Client())

	err := g.Put(context.Background(), "cases/c1/m1.jpg", strings.NewReader("jpeg"), 4, "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, "jpeg", body)
	require.Equal(t, "image/jpeg", ct)
	require.Equal(t, "image/jpeg", p.gotCT)
}

func TestGatewayStore_PutFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	g := NewGatewayStore(&fakePresigner{putURL: srv.URL}, srv.Client())
	err := g.Put(context.Background(), "k", strings.NewReader("x"), 1, "")
	require.ErrorIs(t, err, common.ErrUnavailable)

	g = NewGatewayStore(&fakePresigner{putErr: common.ErrUnauthorized}, nil)
	err = g.Put(context.Background(), "k", strings.NewReader("x"), 1, "")
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestGatewayStore_URLAndDelete(t *testing.T) {
	p := &fakePresigner{getURL: "https://signed/"}
	g := NewGatewayStore(p, nil)

	u, err := g.URL(context.Background(), "cases/c1/m1.jpg")
	require.NoError(t, err)
	require.Equal(t, "https://signed/cases/c1/m1.jpg", u)

	require.NoError(t, g.Delete(context.Background(), "a"))

	p.deleteErr = common.ErrNotFound
	require.NoError(t, g.Delete(context.Background(), "b"))

	p.deleteErr = errors.New("boom")
	require.Error(t, g.Delete(context.Background(), "c"))
	require.Equal(t, []string{"a", "b", "c"}, p.deleted)
}
