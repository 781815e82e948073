package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xenking/marketplace-api/internal/domain/address"
	"github.com/xenking/marketplace-api/internal/domain/user"
)

func TestSnapshotAddress_RecipientName(t *testing.T) {
	tests := []struct {
		name      string
		firstName string
		lastName  string
		want      string
	}{
		{"both names", "Ada", "Lovelace", "Ada Lovelace"},
		{"first only", "Ada", "", "Ada"},
		{"last only", "", "Lovelace", "Lovelace"},
		{"both empty", "", "", DefaultRecipientName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := SnapshotAddress(
				&address.Address{Line1: "1 Main St"},
				&user.User{FirstName: tt.firstName, LastName: tt.lastName},
			)
			assert.Equal(t, tt.want, snap.Name)
		})
	}
}

func TestSnapshotAddress_CopiesAllFields(t *testing.T) {
	addr := &address.Address{
		ID:          10,
		UserID:      1,
		Line1:       "12 Analytical Way",
		Line2:       "Flat 3",
		City:        "London",
		Region:      "Greater London",
		PostalCode:  "EC1A 1BB",
		Country:     "GB",
		PhoneNumber: "+44 20 7946 0000",
	}

	snap := SnapshotAddress(addr, &user.User{FirstName: "Ada"})

	assert.Equal(t, addr.Line1, snap.Line1)
	assert.Equal(t, addr.Line2, snap.Line2)
	assert.Equal(t, addr.City, snap.City)
	assert.Equal(t, addr.Region, snap.Region)
	assert.Equal(t, addr.PostalCode, snap.PostalCode)
	assert.Equal(t, addr.Country, snap.Country)
	assert.Equal(t, addr.PhoneNumber, snap.PhoneNumber)
	assert.Zero(t, snap.ID, "snapshot gets its own identity on save")
}
