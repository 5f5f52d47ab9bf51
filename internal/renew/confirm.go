package renew

import (
	"fmt"
	"time"

	"arcrenew/internal/config"
	"arcrenew/internal/extract"
	"arcrenew/internal/logger"
	"arcrenew/internal/models"
	"arcrenew/internal/panel"
)

// ConfirmState is the per-product confirmation state entered after an
// accepted mutation.
type ConfirmState string

// Confirmation states.
const (
	StateAwaiting    ConfirmState = "AWAITING"
	StateConfirmed   ConfirmState = "CONFIRMED"
	StateUnconfirmed ConfirmState = "UNCONFIRMED"
)

// ConfirmOutcome is the poller's verdict for one product.
type ConfirmOutcome struct {
	State    ConfirmState
	Expiry   *models.ExpiryDate
	Attempts int
}

// Poller re-reads the detail page after an accepted mutation until the
// expiry changes or the retry budget runs out. It never re-issues the
// mutation itself, only the confirmation read.
type Poller struct {
	fetcher   panel.Fetcher
	extractor *extract.Extractor
	policy    config.ConfirmPolicy
	logger    *logger.Logger
}

// NewPoller creates a confirmation poller.
func NewPoller(fetcher panel.Fetcher, extractor *extract.Extractor, policy config.ConfirmPolicy, log *logger.Logger) *Poller {
	return &Poller{
		fetcher:   fetcher,
		extractor: extractor,
		policy:    policy,
		logger:    log,
	}
}

// Confirm waits out the initial apply delay, then polls the detail page.
// The sole confirmation signal is a change of the extracted expiry
// against the pre-mutation value. A budget exhausted on an unchanged but
// valid read still confirms with that value: the panel may have applied
// the entitlement before our "before" read, or the increment is below
// the extracted date granularity.
func (p *Poller) Confirm(product *models.Product, before *models.ExpiryDate) ConfirmOutcome {
	maxAttempts := p.policy.MaxAttempts

	p.logger.Info(fmt.Sprintf("⏳ 等待服务器更新 %s 的到期时间...", product.Name))
	time.Sleep(p.policy.GetInitialDelay())

	var lastRead *models.ExpiryDate

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(p.policy.Retry.GetRetryDelay(attempt))
		}

		lastRead = nil

		resp, err := p.fetcher.Get(product.ManageURL)
		if err != nil {
			// Transient fetch errors consume one attempt.
			p.logger.Warn(fmt.Sprintf("确认读取失败 (第%d/%d次)", attempt, maxAttempts), "error", err)

			continue
		}

		if !resp.OK() {
			p.logger.Warn(fmt.Sprintf("确认读取状态异常 (第%d/%d次)", attempt, maxAttempts), "status", resp.StatusCode)

			continue
		}

		_, expiry := p.extractor.ExtractFields(resp.Body, product.ID)
		if expiry == nil {
			continue
		}

		if !expiry.Equal(before) {
			p.logger.Info(fmt.Sprintf("📅 到期时间已更新: %s → %s", before, expiry))

			return ConfirmOutcome{State: StateConfirmed, Expiry: expiry, Attempts: attempt}
		}

		lastRead = expiry
	}

	if lastRead != nil {
		p.logger.Info(fmt.Sprintf("📅 到期时间未变化，以最后读取为准: %s", lastRead))

		return ConfirmOutcome{State: StateConfirmed, Expiry: lastRead, Attempts: maxAttempts}
	}

	p.logger.Warn(fmt.Sprintf("⚠️ 未能确认 %s 的新到期时间，沿用续期前数值", product.Name))

	return ConfirmOutcome{State: StateUnconfirmed, Expiry: before, Attempts: maxAttempts}
}
