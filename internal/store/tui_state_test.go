package store

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestTUIState_SaveLoad_RoundTrip(t *testing.T) {
	t.Setenv("FREAMARKET_CONFIG_DIR", t.TempDir())

	// Missing file => default state.
	st0, err := LoadTUIState("http://localhost:8000")
	if err != nil {
		t.Fatalf("LoadTUIState: %v", err)
	}
	if st0 == nil || st0.Version != 1 || st0.SelectedItemID != 0 {
		t.Fatalf("expected default state; got %#v", st0)
	}

	want := &TUIState{Version: 1, SelectedItemID: 7}
	if err := SaveTUIState("http://localhost:8000", want); err != nil {
		t.Fatalf("SaveTUIState: %v", err)
	}
	if err := SaveTUIState("http://example.com", &TUIState{SelectedItemID: 3}); err != nil {
		t.Fatalf("SaveTUIState (other origin): %v", err)
	}

	got, err := LoadTUIState("http://localhost:8000")
	if err != nil {
		t.Fatalf("LoadTUIState (after save): %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("roundtrip mismatch:\nwant: %#v\ngot:  %#v", want, got)
	}
}

func TestTUIState_CorruptFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FREAMARKET_CONFIG_DIR", dir)

	if err := os.WriteFile(filepath.Join(dir, tuiStateFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	st, err := LoadTUIState("http://localhost:8000")
	if err != nil {
		t.Fatalf("LoadTUIState: %v", err)
	}
	if st.SelectedItemID != 0 {
		t.Fatalf("expected default state, got %#v", st)
	}
	if err := SaveTUIState("http://localhost:8000", &TUIState{SelectedItemID: 1}); err != nil {
		t.Fatalf("SaveTUIState over corrupt file: %v", err)
	}
}
