package layout

import "strings"

// TierRole classifies a ticket type by its pricing band so layout
// strategies can place premium inventory closest to the stage without
// depending on ticket type names.
type TierRole string

const (
	RolePremium  TierRole = "PREMIUM"
	RoleStandard TierRole = "STANDARD"
	RoleEconomy  TierRole = "ECONOMY"
)

// IsValid checks if the role is part of the canonical set
func (r TierRole) IsValid() bool {
	switch r {
	case RolePremium, RoleStandard, RoleEconomy:
		return true
	}
	return false
}

// TicketTypeRef is the slice of a ticket type the generator needs: the
// name written into sections' ticketTier field and the pricing role.
type TicketTypeRef struct {
	Name string
	Role TierRole
}

// MatchTicketTypeByKeyword finds the first ticket type whose name contains
// one of the keywords, case-insensitively. Used for legacy events whose
// ticket types carry no role.
func MatchTicketTypeByKeyword(types []TicketTypeRef, keywords ...string) (TicketTypeRef, bool) {
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		for _, tt := range types {
			if strings.Contains(strings.ToLower(tt.Name), kw) {
				return tt, true
			}
		}
	}
	return TicketTypeRef{}, false
}

// SelectTier picks the ticket type for a section slot: first by role,
// then by name keyword, finally falling back to the first ticket type so
// generation never fails on unfamiliar tier naming.
func SelectTier(types []TicketTypeRef, role TierRole, keywords ...string) TicketTypeRef {
	if len(types) == 0 {
		return TicketTypeRef{}
	}
	for _, tt := range types {
		if tt.Role == role {
			return tt
		}
	}
	if tt, ok := MatchTicketTypeByKeyword(types, keywords...); ok {
		return tt
	}
	return types[0]
}
