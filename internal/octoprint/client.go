package octoprint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnauthorized API key 无效或缺失
var ErrUnauthorized = errors.New("octoprint: unauthorized (check api key)")

// Client OctoPrint REST API 客户端
// 打印服务器既是连接指令的接收方,也是波特率等串口设置的权威来源
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewClient 创建客户端,baseURL 形如 http://127.0.0.1:5000
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// ConnectionState 宿主当前的打印机连接状态
type ConnectionState struct {
	State    string // e.g. "Operational", "Closed", "Error: ..."
	Port     string
	BaudRate int
	Profile  string
}

type connectionResponse struct {
	Current struct {
		State          string `json:"state"`
		Port           string `json:"port"`
		BaudRate       int    `json:"baudrate"`
		PrinterProfile string `json:"printerProfile"`
	} `json:"current"`
}

type profilesResponse struct {
	Profiles map[string]struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Default bool   `json:"default"`
	} `json:"profiles"`
}

type settingsResponse struct {
	Serial struct {
		BaudRate int `json:"baudrate"`
	} `json:"serial"`
}

type connectCommand struct {
	Command        string `json:"command"`
	Port           string `json:"port,omitempty"`
	PrinterProfile string `json:"printerProfile,omitempty"`
}

// Connection 查询 /api/connection
func (c *Client) Connection(ctx context.Context) (ConnectionState, error) {
	var resp connectionResponse
	if err := c.get(ctx, "/api/connection", &resp); err != nil {
		return ConnectionState{}, err
	}
	return ConnectionState{
		State:    resp.Current.State,
		Port:     resp.Current.Port,
		BaudRate: resp.Current.BaudRate,
		Profile:  resp.Current.PrinterProfile,
	}, nil
}

// Connect 请求宿主连接指定串口
// profile 为空时由宿主自己选默认配置
func (c *Client) Connect(ctx context.Context, port, profile string) error {
	cmd := connectCommand{
		Command:        "connect",
		Port:           port,
		PrinterProfile: profile,
	}
	return c.post(ctx, "/api/connection", cmd)
}

// DefaultProfile 取宿主的默认打印机配置 id,找不到就退回 "_default"
func (c *Client) DefaultProfile(ctx context.Context) (string, error) {
	var resp profilesResponse
	if err := c.get(ctx, "/api/printerprofiles", &resp); err != nil {
		return "", err
	}
	for _, p := range resp.Profiles {
		if p.Default {
			return p.ID, nil
		}
	}
	return "_default", nil
}

// HostBaudRate 宿主串口设置里的波特率,未设置时为 0
func (c *Client) HostBaudRate(ctx context.Context) (int, error) {
	var resp settingsResponse
	if err := c.get(ctx, "/api/settings", &resp); err != nil {
		return 0, err
	}
	return resp.Serial.BaudRate, nil
}

// ClosedOrError 判断宿主报告的状态是否属于"未连接"
// 只有这类状态下才应替宿主发起连接,避免打断正在进行的打印
func ClosedOrError(state string) bool {
	return state == "Closed" ||
		strings.HasPrefix(state, "Error") ||
		strings.HasPrefix(state, "Offline")
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(request, result)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	content, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	return c.do(request, nil)
}

func (c *Client) do(request *http.Request, result any) (err error) {
	request.Header.Set("X-Api-Key", c.apiKey)
	request.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(request)
	if err != nil {
		return fmt.Errorf("octoprint request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, readErr := io.ReadAll(resp.Body)
		if readErr == nil && len(data) > 0 {
			return fmt.Errorf("octoprint returned status %d: %s", resp.StatusCode, data)
		}
		return fmt.Errorf("octoprint returned status %d", resp.StatusCode)
	}

	if result == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
