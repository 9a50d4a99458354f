package receipts

import (
	"bytes"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "receipts"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("missing get = %v, %v", ok, err)
	}

	want := Receipt{Status: 200, Body: []byte(`{"address":"abc"}`)}
	if err := s.Put("req-1", want); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := s.Get("req-1")
	if err != nil || !ok {
		t.Fatalf("get = %v, %v", ok, err)
	}
	if got.Status != want.Status || !bytes.Equal(got.Body, want.Body) {
		t.Fatalf("receipt = %+v, want %+v", got, want)
	}
}

func TestEmptyRequestID(t *testing.T) {
	s := newTestStore(t)
	if err := s.Put("  ", Receipt{Status: 200}); err == nil {
		t.Fatal("expected error for blank request id")
	}
	if _, _, err := s.Get(""); err == nil {
		t.Fatal("expected error for empty request id")
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
