package panel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"arcrenew/internal/config"
	"arcrenew/internal/logger"

	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// Session errors.
var (
	ErrLoginFailed    = errors.New("login failed")
	ErrBadCredentials = errors.New("login rejected: wrong username or password")
	ErrInvalidProxy   = errors.New("invalid proxy url")
)

// Login response markers used by the panel. The login page answers 200
// for both outcomes, so the body is the only signal.
const (
	markerWelcomeBack = "欢迎回来"
	markerLogout      = "退出登录"
	markerError       = "错误"
	markerFailure     = "失败"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/125.0.0.0 Safari/537.36"

// Session is the authenticated panel session. It is created once per run
// and reused read-only across all product operations.
type Session struct {
	client   *http.Client
	limiter  *rate.Limiter
	baseURL  string
	maxBody  int64
	logger   *logger.Logger
}

// Ensure Session implements Fetcher.
var _ Fetcher = (*Session)(nil)

// NewSession builds an unauthenticated session from the panel
// configuration: cookie jar, static timeout, optional SOCKS5 proxy and a
// polite per-request rate limit.
func NewSession(cfg *config.PanelConfig, log *logger.Logger) (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport, err := NewTransport(cfg.ProxyURL)
	if err != nil {
		return nil, err
	}

	return &Session{
		client: &http.Client{
			Jar:       jar,
			Timeout:   cfg.GetTimeout(),
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		baseURL: cfg.BaseURL,
		maxBody: int64(cfg.MaxBodyKb) * 1024,
		logger:  log,
	}, nil
}

// NewTransport returns an http.Transport dialing through the configured
// SOCKS5 proxy, or a default transport when no proxy is set. Shared with
// the notifier so notifications ride the same proxy as panel traffic.
func NewTransport(proxyURL string) (*http.Transport, error) {
	transport := &http.Transport{}

	if proxyURL == "" {
		return transport, nil
	}

	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProxy, err)
	}

	dialer, err := proxy.FromURL(parsed, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProxy, err)
	}

	if contextDialer, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = contextDialer.DialContext
	} else {
		transport.Dial = dialer.Dial
	}

	return transport, nil
}

// Login authenticates against the panel: an initial GET collects session
// cookies, then the credential form is posted. Success is recognized by
// the welcome/logout markers in the response body.
func (s *Session) Login(loginURL, username, password string) error {
	s.logger.Info(fmt.Sprintf("🔑 登录面板: %s***", truncate(username, 3)))

	if _, err := s.Get(loginURL); err != nil {
		return fmt.Errorf("failed to reach login page: %w", err)
	}

	form := url.Values{
		"swapname": {username},
		"swappass": {password},
	}

	resp, err := s.Post(loginURL, form)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d", ErrLoginFailed, resp.StatusCode)
	}

	if strings.Contains(resp.Body, markerWelcomeBack) || strings.Contains(resp.Body, markerLogout) {
		s.logger.Info("✅ 登录成功")
		return nil
	}

	if strings.Contains(resp.Body, markerError) || strings.Contains(resp.Body, markerFailure) {
		return ErrBadCredentials
	}

	return ErrLoginFailed
}

// Get fetches a page through the session.
func (s *Session) Get(pageURL string) (*Response, error) {
	req, err := http.NewRequest(http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return s.do(req)
}

// Post submits a form through the session. A nil form posts an empty
// body, which is what the renewal endpoint expects.
func (s *Session) Post(pageURL string, form url.Values) (*Response, error) {
	body := ""
	if form != nil {
		body = form.Encode()
	}

	req, err := http.NewRequest(http.MethodPost, pageURL, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", s.baseURL)
	req.Header.Set("Referer", pageURL)

	return s.do(req)
}

// do executes one request with browser-like headers and a bounded body
// read.
func (s *Session) do(req *http.Request) (*Response, error) {
	if err := s.limiter.Wait(context.Background()); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	reader := io.LimitReader(resp.Body, s.maxBody)

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
