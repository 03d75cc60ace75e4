package object

import (
	"testing"

	"github.com/xyproto/coslink/internal/ident"
)

func TestModuleBlockByOrdinal(t *testing.T) {
	m := &Module{
		Blocks: []*Block{
			{Name: ident.New("B0")},
			{Name: ident.New("B1")},
		},
	}
	if got := m.Block(1); got == nil || got.Name.String() != "B1" {
		t.Fatalf("Block(1) = %+v, want B1", got)
	}
	if got := m.Block(5); got != nil {
		t.Fatalf("Block(5) = %+v, want nil", got)
	}
}

func TestModuleExternalByIndex(t *testing.T) {
	m := &Module{ExternalRefs: []ident.Ident{ident.New("FOO"), ident.New("BAR")}}
	name, ok := m.External(1)
	if !ok || name.String() != "BAR" {
		t.Fatalf("External(1) = %q, %v", name, ok)
	}
	if _, ok := m.External(2); ok {
		t.Fatal("External(2) should be out of range")
	}
}

func TestImagePutBoundsCheck(t *testing.T) {
	img := NewImage(4) // 32 bytes
	if err := img.Put(16, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("Put within bounds failed: %v", err)
	}
	if err := img.Put(30, []byte{1, 2, 3, 4}); err == nil {
		t.Fatal("Put past end of image should error")
	}
}

func TestBitAddress(t *testing.T) {
	if got := BitAddress(0, 0); got != 0 {
		t.Fatalf("BitAddress(0,0) = %d, want 0", got)
	}
	if got := BitAddress(1, 5); got != 69 {
		t.Fatalf("BitAddress(1,5) = %d, want 69", got)
	}
}
