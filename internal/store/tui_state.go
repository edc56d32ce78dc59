package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

const tuiStateFileName = "tui_state.json"

// TUIState stores small, user-facing UI state for restoring the last screen on relaunch.
// It is best effort: callers should tolerate missing or invalid data.
type TUIState struct {
	Version int `json:"version"`

	// SelectedItemID is the card the cursor was on when the TUI exited.
	SelectedItemID int `json:"selectedItemId,omitempty"`
}

// tuiStateFile holds one TUIState per backend origin.
type tuiStateFile struct {
	Version int                 `json:"version"`
	Origins map[string]TUIState `json:"origins"`
}

func tuiStatePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, tuiStateFileName), nil
}

func loadTUIStateFile() (*tuiStateFile, error) {
	f := &tuiStateFile{Version: 1, Origins: map[string]TUIState{}}
	path, err := tuiStatePath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(b, f); err != nil || f.Origins == nil {
		// Corrupted: treat as missing.
		return &tuiStateFile{Version: 1, Origins: map[string]TUIState{}}, nil
	}
	return f, nil
}

// LoadTUIState returns the saved state for origin, or a default state.
func LoadTUIState(origin string) (*TUIState, error) {
	f, err := loadTUIStateFile()
	if err != nil {
		return nil, err
	}
	st, ok := f.Origins[origin]
	if !ok || st.Version == 0 {
		st.Version = 1
	}
	return &st, nil
}

func SaveTUIState(origin string, st *TUIState) error {
	if st == nil || origin == "" {
		return nil
	}
	f, err := loadTUIStateFile()
	if err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	f.Origins[origin] = *st

	path, err := tuiStatePath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(dir, "tui_state.json.*.tmp", path, b, 0o644)
}
