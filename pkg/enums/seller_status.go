package enums

import "fmt"

// SellerStatus tracks where a seller sits in the verification flow.
type SellerStatus string

const (
	SellerStatusPending   SellerStatus = "pending"
	SellerStatusApproved  SellerStatus = "approved"
	SellerStatusRejected  SellerStatus = "rejected"
	SellerStatusSuspended SellerStatus = "suspended"
)

var validSellerStatuses = []SellerStatus{
	SellerStatusPending,
	SellerStatusApproved,
	SellerStatusRejected,
	SellerStatusSuspended,
}

// String implements fmt.Stringer.
func (s SellerStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SellerStatus.
func (s SellerStatus) IsValid() bool {
	for _, candidate := range validSellerStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSellerStatus converts raw input into a SellerStatus.
func ParseSellerStatus(value string) (SellerStatus, error) {
	for _, candidate := range validSellerStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid seller status %q", value)
}
