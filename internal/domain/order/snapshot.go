package order

import (
	"strings"

	"github.com/xenking/marketplace-api/internal/domain/address"
	"github.com/xenking/marketplace-api/internal/domain/user"
)

// DefaultRecipientName is used when the address owner has no first or last
// name to derive a recipient label from.
const DefaultRecipientName = "Delivery"

// SnapshotAddress copies a live address into an order-scoped immutable value.
// The recipient name is derived from the owner as "first last", trimmed; when
// both parts are empty it falls back to DefaultRecipientName.
//
// The transformation is pure. Ownership of the address is the caller's
// responsibility and is validated by the fulfillment service beforehand.
func SnapshotAddress(addr *address.Address, owner *user.User) ShippingAddress {
	name := owner.FirstName
	if owner.LastName != "" {
		name = strings.TrimSpace(name + " " + owner.LastName)
	}
	if name == "" {
		name = DefaultRecipientName
	}

	return ShippingAddress{
		Name:        name,
		Line1:       addr.Line1,
		Line2:       addr.Line2,
		City:        addr.City,
		Region:      addr.Region,
		PostalCode:  addr.PostalCode,
		Country:     addr.Country,
		PhoneNumber: addr.PhoneNumber,
	}
}
