package models

// Payment lifecycle values for Team.PaymentStatus.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

const (
	TeamMinMembers = 2
	TeamMaxMembers = 4
)

type TeamMember struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"` // 10 digits
	Role  string `json:"role"`
}

// Team is the manifest record: one row per registered team.
// ID is assigned at first persistence and immutable. TeamCode is the
// human-facing check-in key (PREFIX-XXXXXX), a namespace independent of ID.
type Team struct {
	ID               string       `json:"id"`
	TeamName         string       `json:"teamName"`
	TeamCode         string       `json:"teamCode"`
	Members          []TeamMember `json:"members"`
	LeadEmail        string       `json:"leadEmail"`
	PaymentStatus    string       `json:"paymentStatus"`
	GatewayOrderID   string       `json:"gatewayOrderId,omitempty"`
	GatewayPaymentID string       `json:"gatewayPaymentId,omitempty"`
	CheckedIn        bool         `json:"checkedIn"`
	RegisteredAt     string       `json:"registeredAt"`
}

// Lead returns members[0], the designated team lead, or nil for an
// impoverished record (payment reconciled without usable draft data).
func (t *Team) Lead() *TeamMember {
	if len(t.Members) == 0 {
		return nil
	}
	return &t.Members[0]
}

// Stats is a derived aggregate over the manifest, never stored.
type Stats struct {
	Total     int `json:"total"`
	Paid      int `json:"paid"`
	CheckedIn int `json:"checkedIn"`
	Revenue   int `json:"revenue"`
}

// CredentialPayload is the signed portion of an operator token.
type CredentialPayload struct {
	Role      string `json:"role"`
	IssuedAt  int64  `json:"issuedAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

const RoleAdmin = "ADMIN"
