package enum

// ── Customer identity categories (drive discount eligibility) ──

const (
	IdentityAlumni  = "alumni-member"
	IdentityStudent = "current-student"
	IdentityFaculty = "faculty"
	IdentityParent  = "parent"
	IdentityOther   = "other"
)

// Identities lists every valid identity category.
var Identities = []string{
	IdentityAlumni,
	IdentityStudent,
	IdentityFaculty,
	IdentityParent,
	IdentityOther,
}

// ── Sales channels ──

const (
	ChannelInStore = "in-store"
	ChannelOnline  = "online"
)

// ── Stock views (operating mode) ──

const (
	ModeFront     = "front"
	ModeWarehouse = "warehouse"
)

// ── Transaction flows ──

const (
	FlowSale         = "sale"
	FlowGift         = "gift"
	FlowReturn       = "return"
	FlowExchange     = "exchange"
	FlowTransfer     = "transfer"
	FlowRestock      = "restock"
	FlowInternalUse  = "internal-use"
	FlowTemporaryUse = "temporary-use"
	FlowEscheat      = "escheat"
)

// ValidIdentity reports whether s is one of the identity categories.
func ValidIdentity(s string) bool {
	for _, id := range Identities {
		if s == id {
			return true
		}
	}
	return false
}

// ValidChannel reports whether s is a known sales channel.
func ValidChannel(s string) bool {
	return s == ChannelInStore || s == ChannelOnline
}

// ValidMode reports whether s is a known stock view.
func ValidMode(s string) bool {
	return s == ModeFront || s == ModeWarehouse
}
