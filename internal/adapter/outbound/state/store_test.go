package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/pharmaledger/pharmaledger/internal/domain/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *FileRecordStore {
	t.Helper()
	s, err := NewFileRecordStore(filepath.Join(t.TempDir(), "sessions"), testLogger())
	if err != nil {
		t.Fatalf("NewFileRecordStore() error: %v", err)
	}
	return s
}

func TestFileRecordStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "userSession"); !errors.Is(err, session.ErrRecordNotFound) {
		t.Fatalf("Get() on empty dir error = %v, want ErrRecordNotFound", err)
	}

	want := `{"email":"admin@pharmaledger.com","role":"admin","token":"t","timestamp":1}`
	if err := s.Put(ctx, "userSession", []byte(want)); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	got, err := s.Get(ctx, "userSession")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(got) != want {
		t.Errorf("Get() = %s, want %s", got, want)
	}

	if err := s.Delete(ctx, "userSession"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := s.Get(ctx, "userSession"); !errors.Is(err, session.ErrRecordNotFound) {
		t.Errorf("Get() after Delete error = %v", err)
	}
	if err := s.Delete(ctx, "userSession"); err != nil {
		t.Errorf("Delete() of missing record error: %v", err)
	}
}

func TestFileRecordStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	s := newTestStore(t)

	if err := s.Put(context.Background(), "userSession", []byte("{}")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	info, err := os.Stat(filepath.Join(s.Dir(), "userSession.json"))
	if err != nil {
		t.Fatalf("Stat() error: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %04o, want 0600", perm)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "userSession.json.tmp")); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestFileRecordStore_InvalidKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "a/b", ".hidden", "with space", "colon:key"} {
		if err := s.Put(ctx, key, []byte("x")); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Put(%q) error = %v, want ErrInvalidKey", key, err)
		}
		if _, err := s.Get(ctx, key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Get(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestFileRecordStore_SharedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shared")
	a, err := NewFileRecordStore(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewFileRecordStore(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	_ = a.Put(ctx, "userSession", []byte("from-a"))
	got, err := b.Get(ctx, "userSession")
	if err != nil || string(got) != "from-a" {
		t.Errorf("b.Get() = %q, %v", got, err)
	}
}

func TestFileRecordStore_ConcurrentWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Put(ctx, "userSession", []byte(fmt.Sprintf("writer-%02d", i))); err != nil {
				t.Errorf("Put() error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := s.Get(ctx, "userSession")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(got) != len("writer-00") {
		t.Errorf("torn write: %q", got)
	}
}

func TestNewFileRecordStore_UnwritableDir(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("permission checks do not apply")
	}
	parent := t.TempDir()
	if err := os.Chmod(parent, 0500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(parent, 0700) })

	if _, err := NewFileRecordStore(filepath.Join(parent, "sessions"), testLogger()); err == nil {
		t.Error("expected error for unwritable parent directory")
	}
}
