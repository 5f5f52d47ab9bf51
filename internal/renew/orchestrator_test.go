package renew

import (
	"net/url"
	"strings"
	"sync"
	"testing"

	"arcrenew/internal/extract"
	"arcrenew/internal/logger"
	"arcrenew/internal/models"
	"arcrenew/internal/panel"
)

// MockNotifier implements the notify.Notifier interface for testing.
type MockNotifier struct {
	mu       sync.Mutex
	Messages []string
	SendErr  error
}

func (m *MockNotifier) Send(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Messages = append(m.Messages, text)

	return m.SendErr
}

func newTestOrchestrator(fetcher panel.Fetcher, notifier *MockNotifier, perProduct bool) *Orchestrator {
	log := logger.NewLogger("error")
	extractor := extract.NewExtractor(extract.DefaultNameRules(), log)

	return NewOrchestratorWithDeps(
		fetcher,
		extractor,
		NewInvoker(fetcher, testMarker, log),
		NewPoller(fetcher, extractor, zeroDelayPolicy(3), log),
		notifier,
		log,
		"https://vps.polarbear.nyc.mn",
		"https://vps.polarbear.nyc.mn/control/index/",
		perProduct,
	)
}

func TestOrchestrator_Run_MixedOutcomes(t *testing.T) {
	// Listing carries a duplicated id 101 plus id 205. 101 renews and the
	// confirmation read shows the moved expiry; 205 is rejected with 403.
	listing := `
		<a class="btn" href="/control/detail/101/">管理</a>
		<a class="btn" href="/control/detail/101/">续期</a>
		<a class="btn" href="/control/detail/205/">管理</a>`

	var mu sync.Mutex

	renewed101 := false

	fetcher := &MockFetcher{
		GetFunc: func(pageURL string) (*panel.Response, error) {
			mu.Lock()
			defer mu.Unlock()

			switch {
			case strings.HasSuffix(pageURL, "/control/index/"):
				return &panel.Response{StatusCode: 200, Body: listing}, nil
			case strings.Contains(pageURL, "/control/detail/101/"):
				date := "2024-06-01"
				if renewed101 {
					date = "2024-06-08"
				}

				return &panel.Response{StatusCode: 200, Body: "<li>产品名称：极光VPS</li><li>到期时间：" + date + "</li>"}, nil
			case strings.Contains(pageURL, "/control/detail/205/"):
				return &panel.Response{StatusCode: 200, Body: "<li>产品名称：边缘VPS</li><li>到期时间：2024-05-20</li>"}, nil
			}

			t.Errorf("unexpected GET %s", pageURL)

			return &panel.Response{StatusCode: 404, Body: ""}, nil
		},
		PostFunc: func(pageURL string, _ url.Values) (*panel.Response, error) {
			mu.Lock()
			defer mu.Unlock()

			switch {
			case strings.Contains(pageURL, "/control/detail/101/pay/"):
				renewed101 = true

				return &panel.Response{StatusCode: 200, Body: testMarker}, nil
			case strings.Contains(pageURL, "/control/detail/205/pay/"):
				return &panel.Response{StatusCode: 403, Body: ""}, nil
			}

			t.Errorf("unexpected POST %s", pageURL)

			return &panel.Response{StatusCode: 404, Body: ""}, nil
		},
	}

	notifier := &MockNotifier{}

	summary, err := newTestOrchestrator(fetcher, notifier, false).Run()
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.Total() != 2 {
		t.Fatalf("total = %d, want 2 (101 deduplicated)", summary.Total())
	}

	if summary.SuccessCount != 1 || summary.FailCount != 1 {
		t.Errorf("success/fail = %d/%d, want 1/1", summary.SuccessCount, summary.FailCount)
	}

	first := summary.Results[0]
	if first.ProductID != "101" || !first.Success {
		t.Errorf("first result = %+v, want successful 101", first)
	}

	if first.Name != "极光VPS" {
		t.Errorf("first name = %q, want extracted 极光VPS", first.Name)
	}

	if first.ExpiryBefore.String() != "2024-06-01" || first.ExpiryAfter.String() != "2024-06-08" {
		t.Errorf("101 expiry %s → %s, want 2024-06-01 → 2024-06-08", first.ExpiryBefore, first.ExpiryAfter)
	}

	second := summary.Results[1]
	if second.ProductID != "205" || second.Success {
		t.Errorf("second result = %+v, want failed 205", second)
	}

	if second.Reason != models.ReasonAuthExpired {
		t.Errorf("205 reason = %q, want session expired", second.Reason)
	}

	// Per-product messages are off; only the final summary goes out.
	if len(notifier.Messages) != 1 {
		t.Fatalf("notifications = %d, want 1 summary", len(notifier.Messages))
	}

	if !strings.Contains(notifier.Messages[0], "成功: 1") || !strings.Contains(notifier.Messages[0], "失败: 1") {
		t.Errorf("summary message missing counters:\n%s", notifier.Messages[0])
	}
}

func TestOrchestrator_Run_ListingFetchIsFatal(t *testing.T) {
	fetcher := &MockFetcher{
		GetFunc: func(string) (*panel.Response, error) {
			return nil, errConnRefused
		},
	}

	if _, err := newTestOrchestrator(fetcher, &MockNotifier{}, false).Run(); err == nil {
		t.Fatal("Run returned nil error for a listing fetch failure")
	}
}

func TestOrchestrator_Run_EmptyListing(t *testing.T) {
	fetcher := &MockFetcher{
		GetFunc: func(string) (*panel.Response, error) {
			return &panel.Response{StatusCode: 200, Body: "<html><body>暂无产品</body></html>"}, nil
		},
	}

	notifier := &MockNotifier{}

	summary, err := newTestOrchestrator(fetcher, notifier, false).Run()
	if err != nil {
		t.Fatalf("empty listing must not be an error, got %v", err)
	}

	if summary.Total() != 0 {
		t.Errorf("total = %d, want 0", summary.Total())
	}

	if len(notifier.Messages) != 1 || !strings.Contains(notifier.Messages[0], "未找到任何产品") {
		t.Errorf("expected a no-products notification, got %v", notifier.Messages)
	}
}

func TestOrchestrator_Run_PerProductNotifications(t *testing.T) {
	listing := `<a class="btn" href="/control/detail/7/">管理</a>`

	fetcher := &MockFetcher{
		GetFunc: func(pageURL string) (*panel.Response, error) {
			if strings.HasSuffix(pageURL, "/control/index/") {
				return &panel.Response{StatusCode: 200, Body: listing}, nil
			}

			return &panel.Response{StatusCode: 200, Body: "<html><body></body></html>"}, nil
		},
		PostFunc: func(string, url.Values) (*panel.Response, error) {
			return &panel.Response{StatusCode: 200, Body: testMarker}, nil
		},
	}

	notifier := &MockNotifier{}

	if _, err := newTestOrchestrator(fetcher, notifier, true).Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	// One per-product message plus the summary.
	if len(notifier.Messages) != 2 {
		t.Fatalf("notifications = %d, want 2", len(notifier.Messages))
	}

	if !strings.Contains(notifier.Messages[0], "VPS_7") {
		t.Errorf("per-product message missing placeholder name:\n%s", notifier.Messages[0])
	}
}

func TestOrchestrator_Run_NotifierFailureDoesNotAbort(t *testing.T) {
	fetcher := &MockFetcher{
		GetFunc: func(string) (*panel.Response, error) {
			return &panel.Response{StatusCode: 200, Body: "<html><body>暂无产品</body></html>"}, nil
		},
	}

	notifier := &MockNotifier{SendErr: errConnRefused}

	if _, err := newTestOrchestrator(fetcher, notifier, false).Run(); err != nil {
		t.Fatalf("notifier failure must not abort the run, got %v", err)
	}
}
