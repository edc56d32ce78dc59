package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dkjgA893274/fastapi-freamarket/internal/store"
)

func TestSetThenRestore_RoundTripThroughSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := store.KV{Path: filepath.Join(t.TempDir(), "state.sqlite")}
	bucket := kv.Scope("http://localhost:8000")

	s := New(bucket)
	if err := s.Set(ctx, "alice", "tok-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	raw, ok, err := bucket.Get(ctx, KeyCurrentUser)
	if err != nil || !ok || raw != `{"username":"alice"}` {
		t.Fatalf("currentUser entry: %q ok=%v err=%v", raw, ok, err)
	}

	// A fresh Session over the same storage simulates a restart.
	s2 := New(bucket)
	st, ok, err := s2.Restore(ctx)
	if err != nil || !ok {
		t.Fatalf("Restore: ok=%v err=%v", ok, err)
	}
	if st.Username != "alice" || st.AccessToken != "tok-1" {
		t.Fatalf("unexpected restored state: %+v", st)
	}
	if s2.Token() != "tok-1" {
		t.Fatalf("Token()=%q", s2.Token())
	}
}

func TestRestore_RequiresBothEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tests := []struct {
		name    string
		entries map[string]string
		wantErr bool
	}{
		{name: "empty"},
		{name: "token only", entries: map[string]string{KeyAccessToken: "tok"}},
		{name: "user only", entries: map[string]string{KeyCurrentUser: `{"username":"alice"}`}},
		{name: "malformed user", entries: map[string]string{KeyAccessToken: "tok", KeyCurrentUser: "{"}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ms := NewMemoryStorage()
			for k, v := range tt.entries {
				_ = ms.Set(ctx, k, v)
			}
			s := New(ms)
			_, ok, err := s.Restore(ctx)
			if ok {
				t.Fatalf("expected no session")
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v, wantErr=%v", err, tt.wantErr)
			}
			if s.LoggedIn() {
				t.Fatalf("in-memory session should be empty")
			}
		})
	}
}

func TestClear_IsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ms := NewMemoryStorage()
	s := New(ms)
	if err := s.Set(ctx, "alice", "tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.Clear(ctx); err != nil {
			t.Fatalf("Clear #%d: %v", i+1, err)
		}
		if s.LoggedIn() || ms.Len() != 0 {
			t.Fatalf("Clear #%d left state behind (loggedIn=%v entries=%d)", i+1, s.LoggedIn(), ms.Len())
		}
	}
}

func TestSet_RejectsEmptyToken(t *testing.T) {
	t.Parallel()

	s := New(NewMemoryStorage())
	if err := s.Set(context.Background(), "alice", " "); err == nil {
		t.Fatalf("expected error for empty token")
	}
	if s.LoggedIn() {
		t.Fatalf("session must stay empty")
	}
}
