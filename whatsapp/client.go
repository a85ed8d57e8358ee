// Package whatsapp 封装外部WhatsApp消息服务商的HTTP接口
// 服务商按会话限流，因此客户端在同一会话内强制消息间隔；
// 调用方只需要区分"已发送"和"未发送"，不需要区分服务商拒绝和网络故障
package whatsapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"
)

// 默认配置
const (
	defaultSendDelay = 1500 * time.Millisecond // 同会话两次发送之间的最小间隔
	defaultTimeout   = 10 * time.Second        // 单次请求超时，防止一次慢调用挂起整轮运行
)

// Config 服务商接入配置
type Config struct {
	BaseURL   string        // 服务商地址，例如 https://wa.example.com
	APIKey    string        // x-api-key
	SessionID string        // x-session-id
	SendDelay time.Duration // 同会话最小发送间隔
	Timeout   time.Duration // HTTP请求超时
}

// LoadConfig 从环境变量读取服务商配置
func LoadConfig() Config {
	cfg := Config{
		BaseURL:   os.Getenv("WHATSAPP_API_BASE"),
		APIKey:    os.Getenv("WHATSAPP_API_KEY"),
		SessionID: os.Getenv("WHATSAPP_SESSION_ID"),
		SendDelay: defaultSendDelay,
		Timeout:   defaultTimeout,
	}
	if ms, err := strconv.Atoi(os.Getenv("WHATSAPP_SEND_DELAY_MS")); err == nil && ms >= 0 {
		cfg.SendDelay = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

// SendError 发送失败
// 服务商返回的业务失败和传输层故障统一用这一种错误表示
type SendError struct {
	Message string
}

func (e *SendError) Error() string {
	return "whatsapp发送失败: " + e.Message
}

// Client 服务商客户端
// 一个Client对应一个服务商会话，发送节奏在实例内串行控制；
// 不同租户如需并行处理，应各自持有独立会话的Client
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger

	mu       sync.Mutex
	lastSend time.Time
}

// NewClient 创建服务商客户端
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// NormalizePhone 归一化电话号码
// 去掉 + 和所有空白字符，服务商只接受纯数字串
// 例如 "+91 95376 53927" => "919537653927"
func NormalizePhone(raw string) string {
	return strings.Map(func(r rune) rune {
		if r == '+' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

type sendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type sendResponse struct {
	Success bool `json:"success"`
	Data    struct {
		MessageID string `json:"messageId"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SendMessage 发送一条消息，成功时返回服务商的messageId
// 发送前会归一化电话号码并等待同会话的发送间隔
func (c *Client) SendMessage(to string, text string) (string, error) {
	digits := NormalizePhone(to)
	if digits == "" {
		return "", &SendError{Message: "电话号码为空"}
	}

	c.pace()

	payload, err := json.Marshal(sendRequest{To: digits, Text: text})
	if err != nil {
		return "", &SendError{Message: err.Error()}
	}

	req, err := http.NewRequest(http.MethodPost, c.cfg.BaseURL+"/api/v1/messages/send", bytes.NewReader(payload))
	if err != nil {
		return "", &SendError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("x-session-id", c.cfg.SessionID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// 网络故障、超时等传输层异常与服务商拒绝同等对待
		return "", &SendError{Message: err.Error()}
	}
	defer resp.Body.Close()

	var parsed sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &SendError{Message: fmt.Sprintf("响应解析失败 (HTTP %d): %v", resp.StatusCode, err)}
	}
	if !parsed.Success {
		msg := parsed.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("服务商返回失败 (HTTP %d)", resp.StatusCode)
		}
		return "", &SendError{Message: msg}
	}

	c.logger.Info("whatsapp消息已发送",
		zap.String("to", digits), zap.String("message_id", parsed.Data.MessageID))
	return parsed.Data.MessageID, nil
}

// pace 等待同会话的最小发送间隔
// 这是对服务商限流的礼让，不是正确性保证：不同会话的Client互不阻塞
func (c *Client) pace() {
	c.mu.Lock()
	var wait time.Duration
	if !c.lastSend.IsZero() {
		if elapsed := time.Since(c.lastSend); elapsed < c.cfg.SendDelay {
			wait = c.cfg.SendDelay - elapsed
		}
	}
	c.lastSend = time.Now().Add(wait)
	c.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
}
