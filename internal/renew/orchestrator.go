package renew

import (
	"errors"
	"fmt"

	"arcrenew/internal/config"
	"arcrenew/internal/extract"
	"arcrenew/internal/logger"
	"arcrenew/internal/models"
	"arcrenew/internal/notify"
	"arcrenew/internal/panel"
)

// Run-fatal errors. Everything else is scoped to a single product.
var ErrListingFetch = errors.New("failed to fetch product listing")

// Orchestrator sequences one renewal run: list products, then for each
// one read its pre-state, invoke the mutation and confirm. Strictly
// sequential, one product at a time.
type Orchestrator struct {
	fetcher    panel.Fetcher
	extractor  *extract.Extractor
	invoker    *Invoker
	poller     *Poller
	notifier   notify.Notifier
	logger     *logger.Logger
	baseURL    string
	listingURL string
	perProduct bool
}

// NewOrchestrator wires the renewal components from configuration.
func NewOrchestrator(cfg *config.Config, fetcher panel.Fetcher, notifier notify.Notifier, log *logger.Logger) *Orchestrator {
	extractor := extract.NewExtractor(extract.NameRulesFromConfig(&cfg.Extraction), log)

	return NewOrchestratorWithDeps(
		fetcher,
		extractor,
		NewInvoker(fetcher, cfg.Renewal.SuccessMarker, log),
		NewPoller(fetcher, extractor, cfg.Renewal.Confirm, log),
		notifier,
		log,
		cfg.Panel.BaseURL,
		cfg.Panel.ListingURL(),
		cfg.Notify.PerProduct,
	)
}

// NewOrchestratorWithDeps creates an orchestrator with injected
// components (useful for testing).
func NewOrchestratorWithDeps(fetcher panel.Fetcher, extractor *extract.Extractor, invoker *Invoker, poller *Poller,
	notifier notify.Notifier, log *logger.Logger, baseURL, listingURL string, perProduct bool,
) *Orchestrator {
	return &Orchestrator{
		fetcher:    fetcher,
		extractor:  extractor,
		invoker:    invoker,
		poller:     poller,
		notifier:   notifier,
		logger:     log,
		baseURL:    baseURL,
		listingURL: listingURL,
		perProduct: perProduct,
	}
}

// Run executes one full renewal pass. Only a listing fetch failure is
// fatal; per-product failures are recorded and do not affect siblings.
func (o *Orchestrator) Run() (*models.RunSummary, error) {
	o.logger.Info(fmt.Sprintf("📋 获取产品列表: %s", o.listingURL))

	resp, err := o.fetcher.Get(o.listingURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListingFetch, err)
	}

	if !resp.OK() {
		return nil, fmt.Errorf("%w: status %d", ErrListingFetch, resp.StatusCode)
	}

	products := o.extractor.FindProducts(resp.Body, o.baseURL)

	summary := &models.RunSummary{}

	if len(products) == 0 {
		o.logger.Warn("❌ 未在页面中找到任何产品")
		o.send("ArcticCloud VPS续期提醒：\n\n❌未找到任何产品！😭")

		return summary, nil
	}

	o.logger.Info(fmt.Sprintf("🔍 找到 %d 个产品", len(products)))

	for idx := range products {
		product := &products[idx]
		result := o.renewOne(product)
		summary.Add(result)

		if o.perProduct {
			o.send(RenderProductMessage(result))
		}
	}

	o.logger.Info(fmt.Sprintf("📊 续期完成: 成功 %d, 失败 %d", summary.SuccessCount, summary.FailCount))
	o.send(RenderSummary(summary))

	return summary, nil
}

// renewOne processes a single product end to end and always produces a
// result, never an error: extraction misses degrade, mutation and
// network failures are recorded.
func (o *Orchestrator) renewOne(product *models.Product) models.RenewalResult {
	o.logger.Info(fmt.Sprintf("🔄 开始续期: %s (ID: %s)", product.Name, product.ID))

	resp, err := o.fetcher.Get(product.ManageURL)
	if err != nil {
		o.logger.Error(fmt.Sprintf("访问管理页面失败: %v", err))

		return models.RenewalResult{
			ProductID: product.ID,
			Name:      product.Name,
			Success:   false,
			Reason:    models.ReasonNetworkError,
		}
	}

	if resp.OK() {
		name, expiry := o.extractor.ExtractFields(resp.Body, product.ID)
		product.Name = name
		product.Expiry = expiry

		if expiry != nil {
			o.logger.Info(fmt.Sprintf("📅 续期前到期时间: %s", expiry))
		}
	} else {
		o.logger.Warn("管理页面状态异常，使用占位信息", "status", resp.StatusCode)
	}

	before := product.Expiry

	accepted, reason, err := o.invoker.Invoke(product)
	if err != nil {
		return models.RenewalResult{
			ProductID:    product.ID,
			Name:         product.Name,
			Success:      false,
			Reason:       models.ReasonNetworkError,
			ExpiryBefore: before,
			ExpiryAfter:  before,
		}
	}

	if !accepted {
		return models.RenewalResult{
			ProductID:    product.ID,
			Name:         product.Name,
			Success:      false,
			Reason:       reason,
			ExpiryBefore: before,
			ExpiryAfter:  before,
		}
	}

	outcome := o.poller.Confirm(product, before)

	return models.RenewalResult{
		ProductID:    product.ID,
		Name:         product.Name,
		Success:      true,
		ExpiryBefore: before,
		ExpiryAfter:  outcome.Expiry,
		AttemptsUsed: outcome.Attempts,
	}
}

// send delivers a notification, tolerating failures: reporting must
// never abort the run.
func (o *Orchestrator) send(text string) {
	if err := o.notifier.Send(text); err != nil {
		o.logger.Warn("通知发送失败", "error", err)
	}
}
