// Package client はchefgo APIのセッションを利用するGoクライアントを提供する。
// 配達員アプリのバックエンドなど、長時間動くクライアントからの利用を想定する。
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/chefgo/internal/session"
)

// defaultTimeout はHTTPリクエストの既定のタイムアウト。
const defaultTimeout = 10 * time.Second

// ErrUnexpectedStatus はAPIが想定外のステータスを返したことを表す。
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client はBearerトークンでchefgo APIを呼び出す。
// トークンはRefreshで差し替わるため、mutexで保護する。
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New はClientを生成する。httpClientがnilの場合はタイムアウト付きの既定クライアントを使う。
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// Session はGET /auth/sessionで現在のセッションを取得する。
// 有効なセッションがない場合は (nil, nil) を返す。
func (c *Client) Session(ctx context.Context) (*session.View, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/session", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build session request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var v session.View
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	// 未認証のときは空のオブジェクトが返る
	if v.UserID == "" {
		return nil, nil
	}
	return &v, nil
}

// Token は現在のBearerトークンを返す。
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// refreshResponse はPOST /auth/session/refreshのレスポンス。
type refreshResponse struct {
	Token   string        `json:"token"`
	Session *session.View `json:"session"`
}

// Refresh はPOST /auth/session/refreshでトークンを再発行し、以後のリクエストに新しいトークンを使う。
// 古いトークンはサーバー側で失効する。
func (c *Client) Refresh(ctx context.Context) (*session.View, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/session/refresh", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build refresh request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var body refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode refreshed session: %w", err)
	}
	if body.Token == "" || body.Session == nil {
		return nil, errors.New("refresh response has no token")
	}

	c.mu.Lock()
	c.token = body.Token
	c.mu.Unlock()
	return body.Session, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// NewKeeper はこのクライアントのセッションを保持するKeeperを返す。
// 取得のたびにセッションを確認し、発行からopts.Interval以上経っていればトークンを再発行する。
// 呼び出し側でRunを起動する。
func (c *Client) NewKeeper(opts session.KeeperOptions) *session.Keeper {
	interval := opts.Interval
	if interval <= 0 {
		interval = session.DefaultRefreshInterval
	}
	return session.NewKeeper(c.loader(session.RefreshPolicy{Interval: interval}), opts)
}

// loader はセッションを取得し、再発行の時期ならトークンを更新するLoadFuncを返す。
// 再発行に失敗しても現在のトークンが有効な間はそのビューを返す。
func (c *Client) loader(policy session.RefreshPolicy) session.LoadFunc {
	return func(ctx context.Context) (*session.View, error) {
		v, err := c.Session(ctx)
		if err != nil || v == nil {
			return v, err
		}
		if !policy.Due(v, time.Now()) {
			return v, nil
		}

		fresh, err := c.Refresh(ctx)
		if err != nil {
			slog.Warn("session token refresh failed", slog.String("error", err.Error()))
			return v, nil
		}
		return fresh, nil
	}
}
