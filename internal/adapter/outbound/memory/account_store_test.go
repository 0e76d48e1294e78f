package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pharmaledger/pharmaledger/internal/domain/auth"
)

func TestAccountStore_GetAccount(t *testing.T) {
	t.Parallel()

	store := NewAccountStore()
	store.AddAccount(&auth.Account{Email: "Admin@PharmaLedger.com", Name: "System Admin", Role: auth.RoleAdmin})

	tests := []struct {
		name    string
		email   string
		wantErr error
	}{
		{name: "exact", email: "admin@pharmaledger.com"},
		{name: "mixed case", email: "ADMIN@pharmaledger.COM"},
		{name: "padded", email: "  admin@pharmaledger.com "},
		{name: "unknown", email: "nobody@pharmaledger.com", wantErr: auth.ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct, err := store.GetAccount(context.Background(), tt.email)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetAccount() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && acct.Role != auth.RoleAdmin {
				t.Errorf("Role = %q, want admin", acct.Role)
			}
		})
	}
}

func TestAccountStore_CopyOnReturn(t *testing.T) {
	t.Parallel()

	store := NewAccountStore()
	store.AddAccount(&auth.Account{Email: "p@demo.com", Role: auth.RolePharmacy})

	acct, _ := store.GetAccount(context.Background(), "p@demo.com")
	acct.Role = auth.RoleAdmin

	again, _ := store.GetAccount(context.Background(), "p@demo.com")
	if again.Role != auth.RolePharmacy {
		t.Errorf("stored account mutated: Role = %q", again.Role)
	}
}

func TestAccountStore_ListAccountsSorted(t *testing.T) {
	t.Parallel()

	store := NewAccountStore()
	for _, e := range []string{"c@x.com", "a@x.com", "b@x.com"} {
		store.AddAccount(&auth.Account{Email: e, Role: auth.RolePharmacy})
	}

	list, err := store.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("ListAccounts() error: %v", err)
	}
	if len(list) != 3 || list[0].Email != "a@x.com" || list[2].Email != "c@x.com" {
		t.Errorf("ListAccounts() = %v", list)
	}
}

func TestAccountStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	store := NewAccountStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.AddAccount(&auth.Account{Email: "m@x.com", Role: auth.RoleManufacturer})
		}()
		go func() {
			defer wg.Done()
			_, _ = store.GetAccount(context.Background(), "m@x.com")
		}()
	}
	wg.Wait()
}
