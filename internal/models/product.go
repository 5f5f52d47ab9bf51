// Package models defines the renewal domain types shared across the worker.
package models

import "fmt"

// Product is one VPS entitlement discovered on the control panel listing
// page. Instances live for a single run; there is no persisted store.
type Product struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	ManageURL string      `json:"manageUrl"`
	Expiry    *ExpiryDate `json:"expiry,omitempty"`
}

// PlaceholderName synthesizes the fallback display name used when no
// valid name candidate survives extraction.
func PlaceholderName(id string) string {
	return fmt.Sprintf("VPS_%s", id)
}
