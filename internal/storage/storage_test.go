package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"engine/internal/domain"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

type recordingMirror struct {
	keys []string
}

func (m *recordingMirror) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	m.keys = append(m.keys, key)
	return "s3://bucket/" + key, nil
}

func TestSanitizeKey(t *testing.T) {
	cases := map[string]string{
		"videos/a/b.png":    "videos/a/b.png",
		"./videos//a/b.png": "videos/a/b.png",
		"/abs/key":          "abs/key",
		`win\style\key`:     "win/style/key",
	}
	for in, want := range cases {
		got, err := sanitizeKey(in)
		if err != nil {
			t.Fatalf("sanitizeKey(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("sanitizeKey(%q) = %q, want %q", in, got, want)
		}
	}
	for _, bad := range []string{"", "..", "../escape", "a/../../escape"} {
		if _, err := sanitizeKey(bad); err == nil {
			t.Fatalf("sanitizeKey(%q) expected error", bad)
		}
	}
}

func TestFileStoreWriteMirrors(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	mirror := &recordingMirror{}
	store.WithMirror(mirror, zerolog.Nop())

	full, err := store.Write(context.Background(), "videos/p1/img.png", pngMagic, "image/png")
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if full != filepath.Join(store.BasePath(), "videos", "p1", "img.png") {
		t.Fatalf("Write path = %q", full)
	}
	if len(mirror.keys) != 1 || mirror.keys[0] != "videos/p1/img.png" {
		t.Fatalf("mirror keys = %v", mirror.keys)
	}
}

func TestShotStoreLayout(t *testing.T) {
	files, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	store := NewShotStore(files, NewFetcher(0), "http://localhost:8080/")
	shot := &domain.Shot{VideoID: "v1", BlockID: "B01", ShotID: "P01", State: domain.ShotStateCompleted}
	ctx := context.Background()

	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngMagic)
	imagePath, err := store.SaveImage(ctx, shot, dataURI)
	if err != nil {
		t.Fatalf("SaveImage error: %v", err)
	}
	wantImage := filepath.Join(files.BasePath(), "videos", "v1", "block_B01", "shot_P01", "image.png")
	if imagePath != wantImage {
		t.Fatalf("image path = %q, want %q", imagePath, wantImage)
	}

	videoPath, err := store.SaveVideo(ctx, shot, "data:video/mp4;base64,"+base64.StdEncoding.EncodeToString([]byte("clip")))
	if err != nil {
		t.Fatalf("SaveVideo error: %v", err)
	}
	if filepath.Base(videoPath) != "video.mp4" {
		t.Fatalf("video path = %q", videoPath)
	}

	metaPath, err := store.SaveMetadata(ctx, shot)
	if err != nil {
		t.Fatalf("SaveMetadata error: %v", err)
	}
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	var decoded domain.Shot
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if decoded.Key() != "v1/B01/P01" || decoded.State != domain.ShotStateCompleted {
		t.Fatalf("metadata = %#v", decoded)
	}

	url, err := store.PublicURL(imagePath)
	if err != nil {
		t.Fatalf("PublicURL error: %v", err)
	}
	if url != "http://localhost:8080/assets/videos/v1/block_B01/shot_P01/image.png" {
		t.Fatalf("PublicURL = %q", url)
	}
	if _, err := store.PublicURL("/etc/passwd"); err == nil {
		t.Fatalf("expected error for path outside root")
	}
}

func TestLocalPathInvertsPublicURL(t *testing.T) {
	files, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	store := NewShotStore(files, NewFetcher(0), "http://engine.test/")
	want := filepath.Join(files.BasePath(), "catalog_files", "char 01.png")

	public, err := store.PublicURL(want)
	if err != nil {
		t.Fatalf("PublicURL error: %v", err)
	}
	got, ok := store.LocalPath(public)
	if !ok || got != want {
		t.Fatalf("LocalPath(%q) = %q, %v; want %q", public, got, ok, want)
	}
	if got, ok := store.LocalPath("http://engine.test/assets/catalog_files/char%2001.png"); !ok || got != want {
		t.Fatalf("escaped LocalPath = %q, %v", got, ok)
	}

	for _, u := range []string{
		"https://cdn.example/assets/x.png",
		"http://engine.test/assets/../../etc/passwd",
		"http://engine.test/assets/",
		"http://engine.test/other/x.png",
	} {
		if got, ok := store.LocalPath(u); ok {
			t.Fatalf("LocalPath(%q) = %q, want no match", u, got)
		}
	}
}

func TestFetcherSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(pngMagic)
	}))
	defer srv.Close()

	f := NewFetcherWithClient(srv.Client())
	ctx := context.Background()

	blob, err := f.Fetch(ctx, srv.URL+"/img")
	if err != nil {
		t.Fatalf("Fetch url error: %v", err)
	}
	if blob.MIME != "image/png" || Extension(blob, "bin") != "png" {
		t.Fatalf("sniffed blob = %q / %q", blob.MIME, Extension(blob, "bin"))
	}
	if _, err := f.Fetch(ctx, srv.URL+"/missing"); err == nil {
		t.Fatalf("expected error for 404")
	}

	local := filepath.Join(t.TempDir(), "frame.png")
	if err := os.WriteFile(local, pngMagic, 0o644); err != nil {
		t.Fatalf("write local: %v", err)
	}
	blob, err = f.Fetch(ctx, local)
	if err != nil || len(blob.Data) != len(pngMagic) {
		t.Fatalf("Fetch local = %v, %v", len(blob.Data), err)
	}

	for _, bad := range []string{"", "data:image/png;base64", "data:image/png;base64,@@@"} {
		if _, err := f.Fetch(ctx, bad); err == nil {
			t.Fatalf("Fetch(%q) expected error", bad)
		}
	}
}
