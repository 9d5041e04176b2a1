package payment

import (
	"context"

	"StudySpace/internal/model"
)

// OutcomeKind 收银台结果枚举
type OutcomeKind string

const (
	OutcomeSettled   OutcomeKind = "settled"   // 支付完成，携带验签凭据
	OutcomeFailed    OutcomeKind = "failed"    // 支付失败，可重试
	OutcomeAbandoned OutcomeKind = "abandoned" // 用户关掉了收银台，不算错误，可重试
)

// CheckoutOutcome 表示收银台的一次性结果。控制层只消费这个和类型，
// 不接触收银台 SDK 的原始回调形状。
type CheckoutOutcome struct {
	Kind  OutcomeKind
	Proof model.PaymentProof // Kind == settled 时有效
	Err   error              // Kind == failed 时可选携带
}

// CheckoutGateway 抽象外部收银台（线上托管收银页、内嵌 SDK 等）。
// Open 打开收银台并返回单发结果通道：恰好投递一个结果后关闭。
type CheckoutGateway interface {
	Open(ctx context.Context, order model.PaymentOrder) (<-chan CheckoutOutcome, error)
}
