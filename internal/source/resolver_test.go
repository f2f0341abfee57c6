package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPResolverReturnsBodyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("  resolved article text \n"))
	}))
	defer srv.Close()

	r := NewHTTPResolver(time.Second, 1<<20)
	got, err := r.ResolveLink(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("ResolveLink() error = %v", err)
	}
	if got != "resolved article text" {
		t.Fatalf("ResolveLink() = %q, want trimmed body", got)
	}
}

func TestHTTPResolverFailsOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPResolver(time.Second, 1<<20).ResolveLink(context.Background(), srv.URL)
	if !errors.Is(err, ErrResolutionFailed) {
		t.Fatalf("ResolveLink() error = %v, want ErrResolutionFailed", err)
	}
}

func TestHTTPResolverBoundsBodySize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		for i := 0; i < 100; i++ {
			_, _ = w.Write([]byte("0123456789"))
		}
	}))
	defer srv.Close()

	got, err := NewHTTPResolver(time.Second, 16).ResolveLink(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("ResolveLink() error = %v", err)
	}
	if len(got) != 16 {
		t.Fatalf("resolved length = %d, want capped at 16", len(got))
	}
}

func TestStaticResolverMissingURL(t *testing.T) {
	r := &StaticResolver{Content: map[string]string{"https://a": "text"}}
	if _, err := r.ResolveLink(context.Background(), "https://b"); !errors.Is(err, ErrResolutionFailed) {
		t.Fatalf("ResolveLink() error = %v, want ErrResolutionFailed", err)
	}
}
