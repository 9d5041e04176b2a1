package model

// PaymentMethod 支付方式枚举
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"   // 前台现金，管理员 OTP 确认
	PaymentMethodOnline PaymentMethod = "online" // 在线收银台
)

// PaymentOrder 表示在线支付下单接口的响应数据。金额由服务端决定，客户端只透传。
type PaymentOrder struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	PlanCode string `json:"planCode"`
}

// PaymentProof 表示收银台回调携带的结算凭据，用于服务端验签。
type PaymentProof struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

// OTPChallenge 表示现金路径下 OTP 下发接口的响应数据。
type OTPChallenge struct {
	ChallengeID string `json:"challengeId"`
	Length      int    `json:"length"`
	ExpiresIn   int    `json:"expiresIn"`
}
