package models

// RejectReason classifies why a renewal request was not accepted. It is
// reporting detail only and never drives control flow.
type RejectReason string

// Rejection reasons.
const (
	ReasonNone         RejectReason = ""
	ReasonAuthExpired  RejectReason = "session likely expired"
	ReasonVanished     RejectReason = "product vanished"
	ReasonNoMarker     RejectReason = "success marker absent"
	ReasonNetworkError RejectReason = "network error"
	ReasonUnknown      RejectReason = "unknown"
)

// RenewalResult records the outcome of one renewal attempt for one
// product. It is immutable once built and consumed only by the reporter.
type RenewalResult struct {
	ProductID    string       `json:"productId"`
	Name         string       `json:"name"`
	Success      bool         `json:"success"`
	Reason       RejectReason `json:"reason,omitempty"`
	ExpiryBefore *ExpiryDate  `json:"expiryBefore,omitempty"`
	ExpiryAfter  *ExpiryDate  `json:"expiryAfter,omitempty"`
	AttemptsUsed int          `json:"attemptsUsed"`
}

// RunSummary accumulates per-product results in processing order.
type RunSummary struct {
	Results      []RenewalResult `json:"results"`
	SuccessCount int             `json:"successCount"`
	FailCount    int             `json:"failCount"`
}

// Add appends a result and updates the counters.
func (s *RunSummary) Add(r RenewalResult) {
	s.Results = append(s.Results, r)

	if r.Success {
		s.SuccessCount++
	} else {
		s.FailCount++
	}
}

// Total returns the number of products processed.
func (s *RunSummary) Total() int {
	return len(s.Results)
}
