package login

import "github.com/pharmaledger/pharmaledger/internal/domain/auth"

// Destination is where a user lands after logging in.
type Destination string

const (
	DestinationAdmin        Destination = "/dashboard/admin"
	DestinationManufacturer Destination = "/dashboard/manufacturer"
	DestinationPharmacy     Destination = "/dashboard/pharmacy"
	DestinationDefault      Destination = "/"
)

var destinations = map[auth.Role]Destination{
	auth.RoleAdmin:        DestinationAdmin,
	auth.RoleManufacturer: DestinationManufacturer,
	auth.RolePharmacy:     DestinationPharmacy,
}

// RedirectTarget maps a role to its landing page.
// Unrecognized roles go to DestinationDefault.
func RedirectTarget(role auth.Role) Destination {
	if d, ok := destinations[role]; ok {
		return d
	}
	return DestinationDefault
}
