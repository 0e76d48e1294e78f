package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pharmaledger/pharmaledger/internal/adapter/outbound/memory"
	"github.com/pharmaledger/pharmaledger/internal/adapter/outbound/state"
	"github.com/pharmaledger/pharmaledger/internal/config"
	"github.com/pharmaledger/pharmaledger/internal/domain/auth"
	"github.com/pharmaledger/pharmaledger/internal/domain/login"
	"github.com/pharmaledger/pharmaledger/internal/domain/verification"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_DevModeForcesDebug(t *testing.T) {
	cfg := &config.Config{DevMode: true}
	cfg.Server.LogLevel = "error"
	logger := newLogger(cfg, io.Discard)
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("dev mode logger should have debug enabled")
	}
}

func TestOpenRecordStore_File(t *testing.T) {
	cfg := &config.Config{}
	cfg.Session.Backend = "file"
	cfg.Session.Dir = filepath.Join(t.TempDir(), "sessions")

	a := &app{cfg: cfg, logger: discardLogger()}
	if _, ok := a.openRecordStore(context.Background()).(*state.FileRecordStore); !ok {
		t.Fatal("expected a file record store")
	}
}

func TestOpenRecordStore_UnusableDirFallsBackToMemory(t *testing.T) {
	// A regular file where the directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{}
	cfg.Session.Backend = "file"
	cfg.Session.Dir = filepath.Join(blocker, "sessions")

	a := &app{cfg: cfg, logger: discardLogger()}
	if _, ok := a.openRecordStore(context.Background()).(*memory.RecordStore); !ok {
		t.Fatal("expected fallback to the memory record store")
	}
}

func TestOpenRecordStore_Memory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Session.Backend = "memory"

	a := &app{cfg: cfg, logger: discardLogger()}
	if _, ok := a.openRecordStore(context.Background()).(*memory.RecordStore); !ok {
		t.Fatal("expected the memory record store")
	}
}

func TestSeedBatches_MergesFileAndInline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	seed := "batches:\n  - id: ab100/2025\n    product: Ibuprofen 200mg\n    manufacturer: Acme Labs\n"
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := config.CatalogConfig{
		SeedFile: path,
		Batches:  []config.BatchConfig{{ID: "DP001/2024", Product: "Paracetamol 500mg", Manufacturer: "Demo Pharmaceuticals Ltd."}},
	}

	batches, err := seedBatches(cfg)
	if err != nil {
		t.Fatalf("seedBatches: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(batches))
	}
	if batches[0].ID != "AB100/2025" {
		t.Errorf("seed id = %q, want normalized AB100/2025", batches[0].ID)
	}
	if batches[1].ProductName != "Paracetamol 500mg" {
		t.Errorf("inline product = %q", batches[1].ProductName)
	}
}

func TestSeedBatches_MissingFile(t *testing.T) {
	_, err := seedBatches(config.CatalogConfig{SeedFile: filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Fatal("expected an error for a missing seed file")
	}
}

func TestBuildVerifier_MemoryCatalog(t *testing.T) {
	cfg := &config.Config{}
	cfg.Catalog.Mode = "memory"
	cfg.Catalog.Batches = []config.BatchConfig{{ID: "DP001/2024", Product: "Paracetamol 500mg", Manufacturer: "Demo Pharmaceuticals Ltd."}}

	a := &app{cfg: cfg, logger: discardLogger()}
	v, err := a.buildVerifier(context.Background())
	if err != nil {
		t.Fatalf("buildVerifier: %v", err)
	}
	got, err := v.Lookup(context.Background(), "DP001/2024")
	if err != nil || !got.Found {
		t.Fatalf("Lookup = %+v, %v; want found", got, err)
	}
}

func TestBuildAuthenticator_Directory(t *testing.T) {
	hash, err := auth.HashPassword("pharm123")
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{}
	cfg.Auth.Mode = "directory"
	cfg.Auth.Users = []config.UserConfig{{Email: "pharmacy@demo.com", PasswordHash: hash, Role: "pharmacy", Name: "City Pharmacy"}}

	a := &app{cfg: cfg, logger: discardLogger()}
	authn, err := a.buildAuthenticator()
	if err != nil {
		t.Fatalf("buildAuthenticator: %v", err)
	}

	res, err := authn.Authenticate(context.Background(), "pharmacy@demo.com", "pharm123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !res.OK || res.Role != auth.RolePharmacy {
		t.Errorf("result = %+v, want OK pharmacy", res)
	}

	res, err = authn.Authenticate(context.Background(), "pharmacy@demo.com", "wrong-pass")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if res.OK {
		t.Error("wrong password should be declined")
	}
}

func TestAppClose_ReverseOrder(t *testing.T) {
	var order []int
	a := &app{logger: discardLogger()}
	a.closers = []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return errors.New("boom") },
		func() error { order = append(order, 3); return nil },
	}
	a.close()

	if len(order) != 3 || order[0] != 3 || order[2] != 1 {
		t.Errorf("close order = %v, want [3 2 1]", order)
	}
	if a.closers != nil {
		t.Error("closers should be cleared")
	}
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, login.Outcome{
		Status:      login.StateSucceeded,
		Role:        auth.RolePharmacy,
		DisplayName: "City Pharmacy",
		Redirect:    login.DestinationPharmacy,
		Remembered:  true,
		Message:     "Login successful!",
	})
	out := buf.String()
	for _, want := range []string{"Login successful!", "pharmacy", "City Pharmacy", "/dashboard/pharmacy", "remembered"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintOutcome_FieldErrors(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, login.Outcome{
		Status:  login.StateInvalid,
		Message: "Please fill in all fields",
		Fields:  []login.FieldError{{Field: login.FieldIdentity, Message: "Please enter a valid email address"}},
	})
	out := buf.String()
	if !strings.Contains(out, "email: Please enter a valid email address") {
		t.Errorf("missing field error:\n%s", out)
	}
	if strings.Contains(out, "Redirect") {
		t.Errorf("failed outcome should not print a redirect:\n%s", out)
	}
}

func TestReportVerification(t *testing.T) {
	t.Run("authentic", func(t *testing.T) {
		var buf bytes.Buffer
		err := reportVerification(&buf, verification.Result{
			BatchID:          "DP001/2024",
			IsAuthentic:      true,
			ProductName:      "Paracetamol 500mg",
			ManufacturerName: "Demo Pharmaceuticals Ltd.",
			Status:           verification.StatusAuthentic,
		}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Medicine Verified") {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("counterfeit", func(t *testing.T) {
		var buf bytes.Buffer
		err := reportVerification(&buf, verification.Result{
			BatchID: "FAKE/1",
			Status:  verification.StatusCounterfeit,
		}, nil)
		if !errors.Is(err, errCounterfeit) {
			t.Fatalf("err = %v, want errCounterfeit", err)
		}
		if !strings.Contains(buf.String(), "Verification Failed") {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("unavailable", func(t *testing.T) {
		err := reportVerification(io.Discard, verification.Result{}, verification.ErrVerifierUnavailable)
		if !errors.Is(err, verification.ErrVerifierUnavailable) {
			t.Fatalf("err = %v, want wrapped ErrVerifierUnavailable", err)
		}
	})

	t.Run("blank", func(t *testing.T) {
		err := reportVerification(io.Discard, verification.Result{}, verification.ErrBlankInput)
		if err == nil || !strings.Contains(err.Error(), "batch number") {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestHashPassword(t *testing.T) {
	for _, useBcrypt := range []bool{false, true} {
		hash, err := hashPassword("s3cret-pass", useBcrypt)
		if err != nil {
			t.Fatalf("hashPassword(bcrypt=%v): %v", useBcrypt, err)
		}
		ok, err := auth.VerifyPassword("s3cret-pass", hash)
		if err != nil || !ok {
			t.Errorf("hash (bcrypt=%v) does not verify: %v", useBcrypt, err)
		}
		want := auth.HashArgon2id
		if useBcrypt {
			want = auth.HashBcrypt
		}
		if got := auth.DetectHashType(hash); got != want {
			t.Errorf("DetectHashType = %q, want %q", got, want)
		}
	}
}
