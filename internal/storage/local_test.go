package storage

import (
	"bytes"
	"strings"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	content := []byte("file content")
	handle, err := store.Save("resources", "photo.PNG", content)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(handle, "resources/") {
		t.Errorf("handle %q not under requested directory", handle)
	}
	if !strings.HasSuffix(handle, ".png") {
		t.Errorf("handle %q does not keep a lowercased extension", handle)
	}

	got, err := store.Open(handle)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Open returned %q, want %q", got, content)
	}

	if url := store.URL(handle); !strings.HasPrefix(url, "/media/") {
		t.Errorf("URL %q not under /media/", url)
	}

	if err := store.Delete(handle); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(handle); err == nil {
		t.Error("Open succeeded after Delete")
	}

	// deleting twice is not an error
	if err := store.Delete(handle); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	if _, err := store.Save("../outside", "x.txt", []byte("x")); err == nil {
		t.Error("Save accepted a traversal directory")
	}
	if _, err := store.Open("../../etc/passwd"); err == nil {
		t.Error("Open accepted a traversal handle")
	}
}

func TestLocalStoreUniqueNames(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	a, err := store.Save("resources", "same.png", []byte("a"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := store.Save("resources", "same.png", []byte("b"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if a == b {
		t.Errorf("two saves of the same filename collided: %q", a)
	}
}
