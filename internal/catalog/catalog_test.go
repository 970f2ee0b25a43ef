package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCatalog(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "items.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, `{
		"items": [
			{"id": "banana", "name": "Banana", "rarity": "common", "icon": "icons/banana.png"},
			{"id": "crown", "name": "Crown", "rarity": "legendary", "icon": "/abs/crown.png"},
			{"id": "ghost", "name": "Ghost", "rarity": "rare"}
		]
	}`)

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cat.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(cat.Items))
	}

	banana, ok := cat.ByID("banana")
	if !ok {
		t.Fatal("banana missing")
	}
	// Relative icon paths resolve against the catalog directory.
	want := filepath.Join(dir, "icons", "banana.png")
	if banana.IconPath != want {
		t.Errorf("banana icon = %q, want %q", banana.IconPath, want)
	}

	crown, _ := cat.ByID("crown")
	if crown.IconPath != "/abs/crown.png" {
		t.Errorf("absolute icon path rewritten: %q", crown.IconPath)
	}

	ghost, _ := cat.ByID("ghost")
	if ghost.HasIcon() {
		t.Error("ghost should have no icon")
	}
	if _, ok := cat.ByID("missing"); ok {
		t.Error("ByID of unknown id should report absence")
	}
}

func TestLoad_Rejections(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"duplicate ids", `{"items":[{"id":"x","rarity":"common"},{"id":"x","rarity":"rare"}]}`, "duplicate"},
		{"empty id", `{"items":[{"id":"","rarity":"common"}]}`, "empty id"},
		{"malformed json", `{"items":`, "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeCatalog(t, dir, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRarity(t *testing.T) {
	for _, r := range Rarities {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
		if _, ok := BorderColor(r); !ok {
			t.Errorf("%s has no border color", r)
		}
	}
	if Rarity("mythic").Valid() {
		t.Error("unknown rarity should be invalid")
	}
	if _, ok := BorderColor(Rarity("mythic")); ok {
		t.Error("unknown rarity should have no border color")
	}

	// Mutating the returned palette must not leak into the package copy.
	palette := BorderColors()
	orig := palette[RarityCommon]
	palette[RarityCommon] = palette[RarityEpic]
	fresh := BorderColors()
	if fresh[RarityCommon] != orig {
		t.Error("BorderColors should return a copy")
	}
}
