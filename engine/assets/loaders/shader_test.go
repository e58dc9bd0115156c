package loaders

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func writeWords(t *testing.T, words ...uint32) string {
	t.Helper()
	b := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	path := filepath.Join(t.TempDir(), "test.spv")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestShaderLoader(t *testing.T) {
	sl := &ShaderLoader{}
	code, err := sl.Load(writeWords(t, SpirvMagic, 0x00010000, 42))
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != 3 || code[0] != SpirvMagic || code[2] != 42 {
		t.Errorf("unexpected words %v", code)
	}

	if _, err := sl.Load(writeWords(t, 0xdeadbeef)); err == nil {
		t.Error("expected an error for a bad magic number")
	}
	if _, err := sl.Load(filepath.Join(t.TempDir(), "missing.spv")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestBytesToBytecodeRejectsPartialWords(t *testing.T) {
	if _, err := bytesToBytecode([]byte{0x03, 0x02, 0x23, 0x07, 0x01}); err == nil {
		t.Error("expected an error for a truncated module")
	}
	if _, err := bytesToBytecode(nil); err == nil {
		t.Error("expected an error for an empty module")
	}
}
