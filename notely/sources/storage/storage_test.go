package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestURLForAndKeyFromURL(t *testing.T) {
	proxied := newMinIOClient(nil, "notely", "")
	if got := proxied.URLFor("notes/a.jpg"); got != "/images/notes/a.jpg" {
		t.Errorf("unexpected proxy url %s", got)
	}

	public := newMinIOClient(nil, "notely", "https://cdn.example.com/")
	url := public.URLFor("notes/a.jpg")
	if url != "https://cdn.example.com/notely/notes/a.jpg" {
		t.Fatalf("unexpected public url %s", url)
	}

	cases := map[string]string{
		url:                                   "notes/a.jpg",
		"/images/notes/b.jpg":                 "notes/b.jpg",
		"http://old-host:9000/notely/notes/c": "notes/c",
	}
	for in, want := range cases {
		got, ok := public.KeyFromURL(in)
		if !ok || got != want {
			t.Errorf("KeyFromURL(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	for _, bad := range []string{"/uploads/x.png", "/images/", "https://cdn.example.com/other/x"} {
		if _, ok := public.KeyFromURL(bad); ok {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestLegacyUploadsRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.png")
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	legacy := LegacyUploads{Dir: dir}

	if err := legacy.Remove(context.Background(), "/uploads/old.png"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected file removed, stat err=%v", err)
	}
	if err := legacy.Remove(context.Background(), "/uploads/old.png"); err != nil {
		t.Errorf("second remove should be a no-op, got %v", err)
	}
	if err := legacy.Remove(context.Background(), "/uploads/../secret"); !errors.Is(err, errBadLegacyPath) {
		t.Errorf("expected traversal to be refused, got %v", err)
	}
}

func TestLegacyUploadsHandler(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pic.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := LegacyUploads{Dir: dir}.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/uploads/pic.txt", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "hello" {
		t.Errorf("expected file body, got %d %q", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/uploads/missing.txt", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

type recordingRemover struct {
	urls []string
}

func (r *recordingRemover) Remove(_ context.Context, rawURL string) error {
	r.urls = append(r.urls, rawURL)
	return nil
}

func TestRemoverDispatch(t *testing.T) {
	blobs := &recordingRemover{}
	dir := t.TempDir()
	rm := Remover{Legacy: LegacyUploads{Dir: dir}, Blobs: blobs}

	if err := rm.Remove(context.Background(), "/uploads/gone.png"); err != nil {
		t.Errorf("legacy remove: %v", err)
	}
	if err := rm.Remove(context.Background(), "/images/notes/a.jpg"); err != nil {
		t.Errorf("blob remove: %v", err)
	}
	if len(blobs.urls) != 1 || blobs.urls[0] != "/images/notes/a.jpg" {
		t.Errorf("expected only the blob url to reach the store, got %v", blobs.urls)
	}

	if err := (Remover{}).Remove(context.Background(), "/images/x"); !errors.Is(err, ErrBlobStoreDisabled) {
		t.Errorf("expected ErrBlobStoreDisabled, got %v", err)
	}
}
