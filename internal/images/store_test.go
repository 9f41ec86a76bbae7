package images

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupImageStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "uploads"), "http://localhost:8380")
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return store
}

func TestSave(t *testing.T) {
	store := setupImageStore(t)

	url, err := store.Save("photo.JPG", strings.NewReader("fake image bytes"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if !strings.HasPrefix(url, "http://localhost:8380/images/") {
		t.Errorf("unexpected public URL %q", url)
	}
	if !strings.HasSuffix(url, ".jpg") {
		t.Errorf("expected lowercased extension, got %q", url)
	}

	name := url[strings.LastIndex(url, "/")+1:]
	data, err := os.ReadFile(filepath.Join(store.Dir(), name))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(data) != "fake image bytes" {
		t.Error("stored content mismatch")
	}
}

func TestSaveUniqueNames(t *testing.T) {
	store := setupImageStore(t)

	first, err := store.Save("a.png", strings.NewReader("one"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Save("a.png", strings.NewReader("two"))
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("same original name should produce distinct stored names")
	}
}

func TestSaveRejectsBadExtension(t *testing.T) {
	store := setupImageStore(t)

	if _, err := store.Save("malware.exe", strings.NewReader("nope")); err == nil {
		t.Error("expected rejection of non-image extension")
	}
	if _, err := store.Save("noextension", strings.NewReader("nope")); err == nil {
		t.Error("expected rejection of missing extension")
	}
}

func TestSaveRejectsEmpty(t *testing.T) {
	store := setupImageStore(t)

	if _, err := store.Save("photo.png", strings.NewReader("")); err == nil {
		t.Error("expected rejection of empty upload")
	}
}

func TestSaveRejectsOversized(t *testing.T) {
	store := setupImageStore(t)

	big := strings.NewReader(strings.Repeat("x", MaxUploadBytes+1))
	if _, err := store.Save("big.png", big); err == nil {
		t.Error("expected rejection of oversized upload")
	}

	// Failed upload must not leave a file behind.
	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty upload dir, found %d entries", len(entries))
	}
}
