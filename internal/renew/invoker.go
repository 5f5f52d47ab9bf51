// Package renew implements the renewal mutation, its confirmation
// protocol and the run orchestration.
package renew

import (
	"fmt"
	"net/http"
	"strings"

	"arcrenew/internal/logger"
	"arcrenew/internal/models"
	"arcrenew/internal/panel"
)

// Invoker issues the renewal action for one product and classifies the
// response. The remote system signals success only through a fixed
// marker substring; everything else is a rejection.
type Invoker struct {
	fetcher panel.Fetcher
	marker  string
	logger  *logger.Logger
}

// NewInvoker creates an invoker using the given success marker.
func NewInvoker(fetcher panel.Fetcher, marker string, log *logger.Logger) *Invoker {
	return &Invoker{
		fetcher: fetcher,
		marker:  marker,
		logger:  log,
	}
}

// Invoke POSTs the renewal action. accepted is true iff the status is a
// success and the body carries the marker. The reason distinguishes
// rejection causes for reporting only; err is reserved for genuine
// network failures and never overlaps with a rejection.
func (i *Invoker) Invoke(product *models.Product) (accepted bool, reason models.RejectReason, err error) {
	payURL := product.ManageURL + "pay/"

	resp, fetchErr := i.fetcher.Post(payURL, nil)
	if fetchErr != nil {
		return false, models.ReasonNetworkError, fmt.Errorf("renewal request failed: %w", fetchErr)
	}

	if resp.OK() && strings.Contains(resp.Body, i.marker) {
		i.logger.Info(fmt.Sprintf("✅ %s 续期请求已受理", product.Name))

		return true, models.ReasonNone, nil
	}

	switch {
	case resp.StatusCode == http.StatusForbidden:
		reason = models.ReasonAuthExpired
	case resp.StatusCode == http.StatusNotFound:
		reason = models.ReasonVanished
	case resp.OK():
		// Success status without the marker is still a rejection,
		// never a partial success.
		reason = models.ReasonNoMarker
	default:
		reason = models.ReasonUnknown
	}

	i.logger.Warn(fmt.Sprintf("❌ %s 续期被拒绝", product.Name), "status", resp.StatusCode, "reason", string(reason))

	return false, reason, nil
}
