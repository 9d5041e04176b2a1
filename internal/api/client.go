// Package api 封装 StudySpace 后端的 REST 契约。只认接口形状，不掺业务决策，
// 往哪跳、存什么由 session 层决定。
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"resty.dev/v3"

	"StudySpace/internal/model"
)

// Error 表示一次后端调用失败。
// Status == 0 为传输层失败（网络不可达、超时），可重试；4xx 为业务拒绝，带服务端文案。
type Error struct {
	Status  int
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api: transport failure: %v", e.cause)
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Transport 判断是否传输层失败。
func (e *Error) Transport() bool {
	return e.Status == 0
}

// Validation 判断是否业务拒绝（4xx），此类错误不得推进向导状态。
func (e *Error) Validation() bool {
	return e.Status >= 400 && e.Status < 500
}

// Options 客户端构造参数。
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// Client StudySpace 后端客户端。token 可随流程推进更换（注册发 token，登录换 token）。
type Client struct {
	http   *resty.Client
	logger *zap.Logger
	tracer trace.Tracer

	mu    sync.RWMutex
	token string
}

func NewClient(opts Options, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetHeader("Accept", "application/json")

	return &Client{
		http:   httpClient,
		logger: logger,
		tracer: otel.Tracer("studyspace/api"),
	}
}

func (c *Client) Close() error {
	return c.http.Close()
}

// SetToken 更新后续请求使用的 bearer token，空串表示匿名。
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do 发起一次请求并返回原始响应体。错误统一收敛为 *Error。
func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	spanCtx, span := c.tracer.Start(ctx, method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	requestID := uuid.NewString()
	span.SetAttributes(attribute.String("request_id", requestID))

	req := c.http.R().
		SetContext(spanCtx).
		SetHeader("X-Request-ID", requestID)

	if token := c.currentToken(); token != "" {
		req.SetAuthToken(token)
	}

	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		c.logger.Warn("Backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, &Error{cause: err}
	}

	raw := []byte(resp.String())

	if resp.IsError() {
		apiErr := &Error{Status: resp.StatusCode(), Message: "request rejected"}

		var errBody model.ErrorBody
		if jsonErr := json.Unmarshal(raw, &errBody); jsonErr == nil {
			if text := errBody.Text(); text != "" {
				apiErr.Message = text
			}
			apiErr.Code = errBody.Code
		}

		span.SetStatus(codes.Error, apiErr.Message)
		c.logger.Info("Backend request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Int("status", apiErr.Status),
			zap.String("message", apiErr.Message),
		)
		return raw, apiErr
	}

	return raw, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body)
}
