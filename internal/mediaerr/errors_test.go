package mediaerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("disk full")
	err := Wrap(ErrIO, "export", "writing output", base)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO classification, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause to survive, got %v", err)
	}
	if !strings.Contains(err.Error(), "export: writing output") {
		t.Fatalf("expected context in message, got %q", err.Error())
	}
}

func TestWrapNilMarkerDefaults(t *testing.T) {
	err := Wrap(nil, "open", "", nil)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected default ErrIO marker, got %v", err)
	}
}

func TestMissingCapability(t *testing.T) {
	err := fmt.Errorf("open: %w", &MissingCapability{Element: "matroskamux", Detail: "chapter muxing"})
	if !errors.Is(err, ErrMissingCapability) {
		t.Fatalf("expected missing-capability classification")
	}
	var mc *MissingCapability
	if !errors.As(err, &mc) || mc.Element != "matroskamux" {
		t.Fatalf("expected element name to survive, got %#v", mc)
	}
}

func TestChapterFailureKeepsCause(t *testing.T) {
	cause := Wrap(ErrIO, "split", "write", errors.New("permission denied"))
	err := &ChapterFailure{Index: 1, Title: "Second", Err: cause}
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected cause classification to unwrap, got %v", err)
	}
	if !strings.Contains(err.Error(), "chapter 2") {
		t.Fatalf("expected 1-based chapter number in message, got %q", err.Error())
	}
}
