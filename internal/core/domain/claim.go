package domain

import "strconv"

const (
	// ClaimIsActive holds "True"/"False" and gates authentication.
	ClaimIsActive = "IsActive"
	// ClaimEmailAddress mirrors the account email as a claim.
	ClaimEmailAddress = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
)

// Claim is a typed key/value fact attached to an account.
type Claim struct {
	Type  string `json:"type" bson:"type"`
	Value string `json:"value" bson:"value"`
}

// FormatBool renders an active flag the way it is stored in the IsActive claim.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// IsActive derives the active flag from a claim set. A missing or unparsable
// IsActive claim reads as inactive.
func IsActive(claims []Claim) bool {
	for _, c := range claims {
		if c.Type != ClaimIsActive {
			continue
		}
		v, err := strconv.ParseBool(c.Value)
		return err == nil && v
	}
	return false
}

// ClaimValues returns every value recorded for claimType, in store order.
func ClaimValues(claims []Claim, claimType string) []string {
	var out []string
	for _, c := range claims {
		if c.Type == claimType {
			out = append(out, c.Value)
		}
	}
	return out
}

// ReplaceClaim returns claims with every claimType entry replaced by a single
// claim holding value. The input slice is not modified.
func ReplaceClaim(claims []Claim, claimType, value string) []Claim {
	out := make([]Claim, 0, len(claims)+1)
	for _, c := range claims {
		if c.Type != claimType {
			out = append(out, c)
		}
	}
	return append(out, Claim{Type: claimType, Value: value})
}
