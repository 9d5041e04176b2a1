// Package payment 把两条分叉的支付完成路径（前台现金 OTP、在线收银台）
// 归一成一个"支付已结算"信号，交给流程控制层收尾。
package payment

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"StudySpace/config"
	"StudySpace/internal/auth"
	"StudySpace/internal/model"
	pkgerrors "StudySpace/pkg/errors"
)

// State 支付步骤状态机：
// Unselected → MethodChosen → AwaitingInput → Verifying → {Settled | Failed | Abandoned}
// Settled 为终态；Failed/Abandoned 允许重新回到 MethodChosen。
type State string

const (
	StateUnselected    State = "unselected"
	StateMethodChosen  State = "method_chosen"
	StateAwaitingInput State = "awaiting_input"
	StateVerifying     State = "verifying"
	StateSettled       State = "settled"
	StateFailed        State = "failed"
	StateAbandoned     State = "abandoned"
)

// Result 表示一次支付尝试的终态通知。Creds 仅在 Settled 时有效，
// Err 在 Failed 时携带原因（收银台可能只报失败不报原因，允许为 nil）。
type Result struct {
	State State
	Creds auth.Credentials
	Err   error
}

// PaymentAPI 支付环节用到的后端接口。
type PaymentAPI interface {
	CreateOrder(ctx context.Context) (model.PaymentOrder, error)
	VerifyPayment(ctx context.Context, proof model.PaymentProof) ([]byte, error)
	CreateOTP(ctx context.Context) (model.OTPChallenge, error)
	VerifyOTP(ctx context.Context, code string) ([]byte, error)
}

// Adapter 支付交接适配器。
// 每次用户选择支付方式记一个 attempt id，过期 attempt 的异步结果一律丢弃，
// 切换方式后旧收银台的回调不会再污染状态。
type Adapter struct {
	api     PaymentAPI
	gateway CheckoutGateway
	logger  *zap.Logger

	mu           sync.Mutex
	state        State
	method       model.PaymentMethod
	attempt      string
	order        *model.PaymentOrder
	challenge    *model.OTPChallenge
	otp          *OTPInput
	otpSubmitted bool
	creds        *auth.Credentials
	resultCh     chan Result
}

// NewAdapter 构造适配器。gateway 可为 nil，此时仅现金路径可用。
func NewAdapter(api PaymentAPI, gateway CheckoutGateway, logger *zap.Logger) *Adapter {
	return &Adapter{
		api:      api,
		gateway:  gateway,
		logger:   logger,
		state:    StateUnselected,
		resultCh: make(chan Result, 1),
	}
}

// State 返回当前状态。
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// OTP 返回现金路径的码输入器，未选现金方式时为 nil。
func (a *Adapter) OTP() *OTPInput {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.otp
}

// Order 返回在线路径的当前订单。
func (a *Adapter) Order() *model.PaymentOrder {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.order
}

// Results 返回终态通知通道。Settled 恰好投递一次最终凭据；
// 在线路径的 Failed/Abandoned 同样会投递，调用方不必靠轮询或超时才发现可重试终态。
func (a *Adapter) Results() <-chan Result {
	return a.resultCh
}

// Credentials 返回结算凭据，支付尚未结算时第二个返回值为 false。
func (a *Adapter) Credentials() (auth.Credentials, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.creds == nil {
		return auth.Credentials{}, false
	}
	return *a.creds, true
}

// SelectCash 选择现金路径：请求一次 OTP 下发并重置输入器。
// 重复选择会重新下发；每次选择最多触发一次 create-otp。
func (a *Adapter) SelectCash(ctx context.Context) error {
	a.mu.Lock()
	if a.state == StateSettled {
		a.mu.Unlock()
		return pkgerrors.PaymentAlreadySettled
	}
	a.state = StateMethodChosen
	a.method = model.PaymentMethodCash
	a.attempt = uuid.NewString()
	a.order = nil
	a.otpSubmitted = false
	a.drainStaleResult()
	attempt := a.attempt
	a.mu.Unlock()

	challenge, err := a.api.CreateOTP(ctx)
	if err != nil {
		a.failAttempt(attempt, err)
		return err
	}

	// 服务端没报长度时用本地配置的码长
	length := challenge.Length
	if length <= 0 {
		length = config.Cfg.OTPLength
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.attempt != attempt {
		// 等待下发期间用户换了方式，本次结果作废
		return nil
	}
	a.challenge = &challenge
	a.otp = NewOTPInput(length)
	a.state = StateAwaitingInput

	a.logger.Info("Cash OTP requested",
		zap.String("challenge_id", challenge.ChallengeID),
		zap.Int("length", length),
	)
	return nil
}

// RequestNewCode 现金路径下重新请求验证码：全部格子清空、焦点回到第一格，
// 不触发任何验证调用。
func (a *Adapter) RequestNewCode(ctx context.Context) error {
	a.mu.Lock()
	if a.method != model.PaymentMethodCash || a.otp == nil {
		a.mu.Unlock()
		return pkgerrors.PaymentMethodNotChosen
	}
	a.mu.Unlock()

	return a.SelectCash(ctx)
}

// EnterDigit 现金路径下写入一格。填满最后一格时自动提交，恰好一次验证调用。
// 返回是否已结算。
func (a *Adapter) EnterDigit(ctx context.Context, index int, value string) (bool, error) {
	a.mu.Lock()
	if a.state == StateSettled {
		a.mu.Unlock()
		return true, nil
	}
	if a.otp == nil || (a.state != StateAwaitingInput && a.state != StateFailed) {
		a.mu.Unlock()
		return false, pkgerrors.PaymentMethodNotChosen
	}

	full := a.otp.SetDigit(index, value)
	if !full || a.otpSubmitted {
		a.mu.Unlock()
		return false, nil
	}

	a.otpSubmitted = true
	a.state = StateVerifying
	code := a.otp.Code()
	attempt := a.attempt
	a.mu.Unlock()

	raw, err := a.api.VerifyOTP(ctx, code)
	if err != nil {
		a.mu.Lock()
		if a.attempt == attempt {
			a.state = StateFailed
			a.otpSubmitted = false // 允许改码重交，不限次数
		}
		a.mu.Unlock()
		a.logger.Info("OTP verification rejected", zap.Error(err))
		return false, pkgerrors.OTPVerificationFailed
	}

	creds, err := auth.NormalizeLogin(raw)
	if err != nil {
		a.mu.Lock()
		if a.attempt == attempt {
			a.state = StateFailed
			a.otpSubmitted = false
		}
		a.mu.Unlock()
		return false, err
	}

	a.settle(attempt, creds)
	return true, nil
}

// SelectOnline 选择在线路径：下单并打开收银台，异步等待其单发结果。
// 每次选择最多触发一次 create-order。
func (a *Adapter) SelectOnline(ctx context.Context) error {
	a.mu.Lock()
	if a.state == StateSettled {
		a.mu.Unlock()
		return pkgerrors.PaymentAlreadySettled
	}
	if a.gateway == nil {
		a.mu.Unlock()
		return pkgerrors.CheckoutGatewayNotReady
	}
	a.state = StateMethodChosen
	a.method = model.PaymentMethodOnline
	a.attempt = uuid.NewString()
	a.otp = nil
	a.challenge = nil
	a.drainStaleResult()
	attempt := a.attempt
	a.mu.Unlock()

	order, err := a.api.CreateOrder(ctx)
	if err != nil {
		a.failAttempt(attempt, err)
		return err
	}

	outcomes, err := a.gateway.Open(ctx, order)
	if err != nil {
		a.failAttempt(attempt, err)
		return err
	}

	a.mu.Lock()
	if a.attempt != attempt {
		a.mu.Unlock()
		return nil
	}
	a.order = &order
	a.state = StateAwaitingInput
	a.mu.Unlock()

	a.logger.Info("Checkout opened",
		zap.String("order_id", order.OrderID),
		zap.Int64("amount", order.Amount),
		zap.String("currency", order.Currency),
	)

	go a.consumeOutcome(ctx, attempt, outcomes)
	return nil
}

func (a *Adapter) consumeOutcome(ctx context.Context, attempt string, outcomes <-chan CheckoutOutcome) {
	var outcome CheckoutOutcome
	select {
	case <-ctx.Done():
		return
	case out, ok := <-outcomes:
		if !ok {
			return
		}
		outcome = out
	}

	a.mu.Lock()
	if a.attempt != attempt {
		a.mu.Unlock()
		a.logger.Debug("Dropping stale checkout outcome", zap.String("attempt", attempt))
		return
	}

	switch outcome.Kind {
	case OutcomeAbandoned:
		a.state = StateAbandoned
		a.mu.Unlock()
		a.logger.Info("Checkout abandoned, retry available")
		a.publish(Result{State: StateAbandoned})
		return
	case OutcomeFailed:
		a.state = StateFailed
		a.mu.Unlock()
		a.logger.Info("Checkout failed", zap.Error(outcome.Err))
		a.publish(Result{State: StateFailed, Err: outcome.Err})
		return
	case OutcomeSettled:
		a.state = StateVerifying
		a.mu.Unlock()
	default:
		a.state = StateFailed
		a.mu.Unlock()
		a.logger.Warn("Unknown checkout outcome", zap.String("kind", string(outcome.Kind)))
		a.publish(Result{State: StateFailed})
		return
	}

	raw, err := a.api.VerifyPayment(ctx, outcome.Proof)
	if err != nil {
		if a.failAttempt(attempt, err) {
			a.publish(Result{State: StateFailed, Err: err})
		}
		return
	}

	creds, err := auth.NormalizeLogin(raw)
	if err != nil {
		if a.failAttempt(attempt, err) {
			a.publish(Result{State: StateFailed, Err: err})
		}
		return
	}

	a.settle(attempt, creds)
}

// failAttempt 将仍属当前 attempt 的失败落到状态机上，返回是否生效。
func (a *Adapter) failAttempt(attempt string, err error) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.attempt != attempt {
		return false
	}
	a.state = StateFailed
	a.logger.Info("Payment attempt failed", zap.Error(err))
	return true
}

// publish 投递一个终态。没人消费的旧结果直接顶掉，通道里只留最新一条。
func (a *Adapter) publish(res Result) {
	for {
		select {
		case a.resultCh <- res:
			return
		default:
		}
		select {
		case <-a.resultCh:
		default:
		}
	}
}

// drainStaleResult 丢弃上一轮 attempt 留下的未消费终态，调用方需持有锁。
func (a *Adapter) drainStaleResult() {
	select {
	case <-a.resultCh:
	default:
	}
}

func (a *Adapter) settle(attempt string, creds auth.Credentials) {
	a.mu.Lock()
	if a.attempt != attempt || a.state == StateSettled {
		a.mu.Unlock()
		return
	}
	a.state = StateSettled
	a.creds = &creds
	a.mu.Unlock()

	a.publish(Result{State: StateSettled, Creds: creds})
	a.logger.Info("Payment settled", zap.String("user_id", creds.User.ID))
}
