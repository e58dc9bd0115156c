package assets

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/oberon/engine/assets/loaders"
	"github.com/spaghettifunk/oberon/engine/core"
)

func writeShader(t *testing.T, dir, name string, words ...uint32) {
	t.Helper()
	b := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
		t.Fatal(err)
	}
}

func newManager(t *testing.T) (*AssetManager, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "shaders"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeShader(t, filepath.Join(root, "shaders"), "shader.vert.spv", loaders.SpirvMagic, 1, 2)
	if err := os.WriteFile(filepath.Join(root, "readme.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	if err := am.Initialize(root); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = am.Shutdown() })
	return am, root
}

func TestInitializeIndexesShaders(t *testing.T) {
	am, _ := newManager(t)

	if am.Count() != 1 {
		t.Fatalf("expected 1 indexed asset, got %v", am.Assets())
	}
	info, ok := am.Lookup("shaders/shader.vert.spv")
	if !ok || info.Type != AssetTypeShader {
		t.Fatalf("shader not indexed: %+v", info)
	}
}

func TestLoadShader(t *testing.T) {
	am, _ := newManager(t)

	code, err := am.LoadShader("shader.vert")
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != 3 || code[0] != loaders.SpirvMagic {
		t.Errorf("unexpected words %v", code)
	}
	info, _ := am.Lookup("shaders/shader.vert.spv")
	if info.LastLoaded.IsZero() {
		t.Error("load time was not recorded")
	}

	if _, err := am.LoadShader("missing.frag"); !errors.Is(err, core.ErrAssetNotFound) {
		t.Errorf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestLoadShaderNotYetIndexed(t *testing.T) {
	am, root := newManager(t)

	writeShader(t, filepath.Join(root, "shaders"), "shader.frag.spv", loaders.SpirvMagic, 7)
	code, err := am.LoadShader("shader.frag")
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != 2 || code[1] != 7 {
		t.Errorf("unexpected words %v", code)
	}
}

func TestWatcherTracksRemoval(t *testing.T) {
	am, root := newManager(t)

	if err := os.Remove(filepath.Join(root, "shaders", "shader.vert.spv")); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := am.Lookup("shaders/shader.vert.spv"); !ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("removed shader is still indexed")
}

func TestShutdownTwice(t *testing.T) {
	am, _ := newManager(t)
	if err := am.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := am.Shutdown(); err != nil {
		t.Fatal(err)
	}
}

func TestDetermineAssetType(t *testing.T) {
	tests := map[string]AssetType{
		"shaders/a.spv":  AssetTypeShader,
		"shaders/a.vert": AssetTypeShaderSource,
		"shaders/a.frag": AssetTypeShaderSource,
		"textures/a.png": AssetTypeNone,
	}
	for path, want := range tests {
		if got := determineAssetType(path); got != want {
			t.Errorf("%s: expected %s, got %s", path, want, got)
		}
	}
}
