package config

import (
	"fmt"

	"github.com/pharmaledger/pharmaledger/internal/domain/auth"
)

// devAccount is a demo login available in dev mode only.
type devAccount struct {
	email, password, role, name string
}

var devAccounts = []devAccount{
	{"admin@pharmaledger.com", "admin123", "admin", "System Admin"},
	{"manufacturer@demo.com", "manu123", "manufacturer", "Demo Pharmaceuticals"},
	{"pharmacy@demo.com", "pharm123", "pharmacy", "City Pharmacy"},
}

// devUsers hashes the demo accounts. Hashing happens at startup so no
// password hash is committed to the repository.
func devUsers() ([]UserConfig, error) {
	users := make([]UserConfig, 0, len(devAccounts))
	for _, a := range devAccounts {
		hash, err := auth.HashPassword(a.password)
		if err != nil {
			return nil, fmt.Errorf("hash dev password for %s: %w", a.email, err)
		}
		users = append(users, UserConfig{
			Email:        a.email,
			PasswordHash: hash,
			Role:         a.role,
			Name:         a.name,
		})
	}
	return users, nil
}

func devBatches() []BatchConfig {
	const (
		product      = "Paracetamol 500mg"
		manufacturer = "Demo Pharmaceuticals Ltd."
	)
	ids := []string{"DP001/2024", "PH123/2024", "MED456/2024", "RX789/2024"}
	out := make([]BatchConfig, 0, len(ids))
	for _, id := range ids {
		out = append(out, BatchConfig{ID: id, Product: product, Manufacturer: manufacturer})
	}
	return out
}
