package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"StudySpace/internal/model"
	pkgerrors "StudySpace/pkg/errors"
)

// RegistrationRequest 表示注册（step1）的提交内容。
type RegistrationRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest 登录请求体。
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// decodeData 解出统一响应里的 data。老版本接口没有信封、直接平铺返回，兜底整体解码。
func decodeData(raw []byte, out interface{}) error {
	var envelope model.Envelope
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 {
		return json.Unmarshal(envelope.Data, out)
	}
	return json.Unmarshal(raw, out)
}

// Register 注册并开启一次引导会话。
func (c *Client) Register(ctx context.Context, req RegistrationRequest) (model.RegistrationResult, error) {
	raw, err := c.post(ctx, "/onboarding/step1/register", req)
	if err != nil {
		return model.RegistrationResult{}, err
	}

	var result model.RegistrationResult
	if err := decodeData(raw, &result); err != nil {
		return model.RegistrationResult{}, fmt.Errorf("decode registration result: %w", err)
	}
	return result, nil
}

// Login 凭证登录。响应形状在历史版本间不一致，这里原样返回交给归一化层。
func (c *Client) Login(ctx context.Context, req LoginRequest) ([]byte, error) {
	return c.post(ctx, "/users/login", req)
}

// SessionStatus 查询当前引导进度。404 与空会话都归一为 OnboardingNoSession，
// 对调用方来说"没有会话"是正常信号，不是失败。
func (c *Client) SessionStatus(ctx context.Context) (model.SessionStatus, error) {
	raw, err := c.get(ctx, "/onboarding/status")
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status == 404 {
			return model.SessionStatus{}, pkgerrors.OnboardingNoSession
		}
		return model.SessionStatus{}, err
	}

	var status model.SessionStatus
	if err := decodeData(raw, &status); err != nil {
		return model.SessionStatus{}, fmt.Errorf("decode session status: %w", err)
	}

	if status.SessionID == "" {
		return model.SessionStatus{}, pkgerrors.OnboardingNoSession
	}
	return status, nil
}

// SubmitAdmission 提交入驻信息（step2）。
func (c *Client) SubmitAdmission(ctx context.Context, details model.AdmissionDetails) (model.StepAck, error) {
	return c.stepPost(ctx, "/onboarding/step2/admission", details)
}

// SelectPlan 选定租座方案（step3）。
func (c *Client) SelectPlan(ctx context.Context, planID string) (model.StepAck, error) {
	return c.stepPost(ctx, "/onboarding/step3/plan", map[string]string{"planId": planID})
}

// SelectSeat 选定座位（step4）。
func (c *Client) SelectSeat(ctx context.Context, seatID string) (model.StepAck, error) {
	return c.stepPost(ctx, "/onboarding/step4/seat", map[string]string{"seatId": seatID})
}

func (c *Client) stepPost(ctx context.Context, path string, body interface{}) (model.StepAck, error) {
	raw, err := c.post(ctx, path, body)
	if err != nil {
		return model.StepAck{}, err
	}

	var ack model.StepAck
	if err := decodeData(raw, &ack); err != nil {
		return model.StepAck{}, fmt.Errorf("decode step ack: %w", err)
	}
	return ack, nil
}

// AvailablePlans 拉取可选方案列表。
func (c *Client) AvailablePlans(ctx context.Context) ([]model.Plan, error) {
	raw, err := c.get(ctx, "/plans")
	if err != nil {
		return nil, err
	}

	var plans []model.Plan
	if err := decodeData(raw, &plans); err != nil {
		return nil, fmt.Errorf("decode plans: %w", err)
	}
	return plans, nil
}

// AvailableSeats 拉取某方案下的空闲座位。
func (c *Client) AvailableSeats(ctx context.Context, planID string) ([]model.Seat, error) {
	raw, err := c.get(ctx, "/seats/available?planId="+url.QueryEscape(planID))
	if err != nil {
		return nil, err
	}

	var seats []model.Seat
	if err := decodeData(raw, &seats); err != nil {
		return nil, fmt.Errorf("decode seats: %w", err)
	}
	return seats, nil
}

// CreateOrder 在线支付下单（step5）。金额由服务端决定，客户端不传。
func (c *Client) CreateOrder(ctx context.Context) (model.PaymentOrder, error) {
	raw, err := c.post(ctx, "/onboarding/step5/create-order", nil)
	if err != nil {
		return model.PaymentOrder{}, err
	}

	var order model.PaymentOrder
	if err := decodeData(raw, &order); err != nil {
		return model.PaymentOrder{}, fmt.Errorf("decode payment order: %w", err)
	}
	return order, nil
}

// VerifyPayment 提交收银台结算凭据验签。成功响应携带最终身份，原样返回给归一化层。
func (c *Client) VerifyPayment(ctx context.Context, proof model.PaymentProof) ([]byte, error) {
	return c.post(ctx, "/onboarding/step5/verify-payment", proof)
}

// CreateOTP 现金路径：请求下发一次性验证码。
func (c *Client) CreateOTP(ctx context.Context) (model.OTPChallenge, error) {
	raw, err := c.get(ctx, "/onboarding/step5/create-otp")
	if err != nil {
		return model.OTPChallenge{}, err
	}

	var challenge model.OTPChallenge
	if err := decodeData(raw, &challenge); err != nil {
		return model.OTPChallenge{}, fmt.Errorf("decode otp challenge: %w", err)
	}
	return challenge, nil
}

// VerifyOTP 现金路径：提交验证码。成功响应与在线结算同形，原样返回。
func (c *Client) VerifyOTP(ctx context.Context, code string) ([]byte, error) {
	return c.post(ctx, "/onboarding/step5/verify-otp", map[string]string{"code": code})
}
