package models

import "time"

// ExpiryDate is an extracted entitlement expiry. Raw preserves the token
// exactly as it appeared in the page; Time is the normalized value used
// for comparisons, so 2024-05-03 and 2024年5月3日 compare equal.
type ExpiryDate struct {
	Raw  string    `json:"raw"`
	Time time.Time `json:"time"`
}

// Equal reports whether both expiries refer to the same instant. Nil
// receivers and arguments are handled so callers can compare optional
// values directly.
func (e *ExpiryDate) Equal(other *ExpiryDate) bool {
	if e == nil || other == nil {
		return e == other
	}

	return e.Time.Equal(other.Time)
}

// String returns the raw token, or "未知" when the expiry was never
// extracted.
func (e *ExpiryDate) String() string {
	if e == nil {
		return "未知"
	}

	return e.Raw
}
