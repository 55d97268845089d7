package fileutil

import (
	"os"
	"testing"

	"github.com/spf13/afero"
)

func TestWriteFileAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/out/video.srt"

	if err := WriteFileAtomic(fs, path, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(fs, path, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content mismatch: got %q", got)
	}
	entries, err := afero.ReadDir(fs, "/out")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be gone, found %d entries", len(entries))
	}
}

func TestCopyFileVerified(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := []byte("verified copy content")
	if err := afero.WriteFile(fs, "/src.bin", content, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileVerified(fs, "/src.bin", "/dst.bin"); err != nil {
		t.Fatal(err)
	}

	got, err := afero.ReadFile(fs, "/dst.bin")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestCopyFileVerified_MissingSource(t *testing.T) {
	if err := CopyFileVerified(afero.NewMemMapFs(), "/nonexistent", "/dst.bin"); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestMoveFile(t *testing.T) {
	fs := afero.NewOsFs()
	dir := t.TempDir()
	src := dir + "/work/clip.partial.mp4"
	dst := dir + "/out/clip.bilingual.hardcoded.mp4"
	if err := os.MkdirAll(dir+"/work", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := MoveFile(fs, src, dst); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source to be gone, got %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "video" {
		t.Fatalf("content mismatch: got %q", got)
	}
}
