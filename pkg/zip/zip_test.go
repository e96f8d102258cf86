package zip

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestCollectAndWrite(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "t1", "B01", "P01", "img_hero.png"), "png")
	mustWrite(t, filepath.Join(root, "t2", "img_bg.jpg"), "jpg")

	entries, err := Collect(root)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "t1/B01/P01/img_hero.png" || entries[1].Name != "t2/img_bg.jpg" {
		t.Fatalf("entries = %+v", entries)
	}

	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		t.Fatalf("Write: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("archive has %d files", len(zr.File))
	}
	rc, err := zr.File[1].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "jpg" {
		t.Fatalf("body = %q", body)
	}
}

func TestCollectEmpty(t *testing.T) {
	if _, err := Collect(t.TempDir()); !errors.Is(err, ErrEmpty) {
		t.Fatalf("err = %v", err)
	}
}

func mustWrite(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}
