package msgcat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalogRenders(t *testing.T) {
	c := Default()
	got, err := c.Render("panel.waiting", map[string]any{"Room": "abc"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "Waiting for an opponent to join room abc" {
		t.Fatalf("got %q", got)
	}
	for _, k := range []string{"overlay.checkmate", "overlay.draw", "overlay.stalemate", "cue.game_over", "console.help"} {
		if !c.Has(k) {
			t.Fatalf("missing key %s", k)
		}
	}
}

func TestRenderMissingDataIsError(t *testing.T) {
	c := Default()
	if _, err := c.Render("panel.room", map[string]any{}); err == nil {
		t.Fatalf("expected missing key error")
	}
	if got := c.Text("no.such.key", nil); got != "no.such.key" {
		t.Fatalf("fallback = %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("overlay:\n  draw: \"Remis\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Text("overlay.draw", nil); got != "Remis" {
		t.Fatalf("override not applied: %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "b.yml"), []byte("overlay:\n  draw: \"Patt\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}
