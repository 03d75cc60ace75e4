package ident

import "testing"

func TestNewPadsAndUppercases(t *testing.T) {
	id := New("foo")
	if got, want := id.String(), "FOO"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if id[3] != ' ' || id[7] != ' ' {
		t.Fatalf("expected space padding, got %q", id[:])
	}
}

func TestNewTruncatesLongNames(t *testing.T) {
	id := New("ABCDEFGHIJKL")
	if got, want := id.String(), "ABCDEFGH"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestCaseInsensitiveEquality(t *testing.T) {
	if New("main") != New("MAIN") {
		t.Fatal("expected case-insensitive equality")
	}
	if New("main") != New("Main  ") {
		t.Fatal("expected trailing-space equality")
	}
}

func TestFromBytesRoundTrip(t *testing.T) {
	b := []byte("sub1    ")
	id := FromBytes(b)
	if got, want := id.String(), "SUB1"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if got := id.Bytes(); string(got) != "SUB1    " {
		t.Fatalf("Bytes() = %q", got)
	}
}

func TestIndexSetGetDuplicate(t *testing.T) {
	ix := NewIndex[int](4)
	if existed := ix.Set(New("FOO"), 1); existed {
		t.Fatal("first Set should not report existing")
	}
	if existed := ix.Set(New("foo"), 2); !existed {
		t.Fatal("case-insensitive re-Set should report existing")
	}
	v, ok := ix.Get(New("Foo"))
	if !ok || v != 2 {
		t.Fatalf("Get() = %d, %v, want 2, true", v, ok)
	}
	if ix.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", ix.Count())
	}
}

func TestIndexResizesUnderLoad(t *testing.T) {
	ix := NewIndex[int](4)
	for i := 0; i < 200; i++ {
		name := string(rune('A'+i%26)) + string(rune('a'+(i/26)%26))
		ix.Set(New(name), i)
	}
	if ix.Count() != 200 {
		t.Fatalf("Count() = %d, want 200", ix.Count())
	}
}
