package errors

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 认证响应相关错误。登录/注册响应缺字段时必须区分缺了什么，页面按 code 分别渲染。
var (
	AuthTokenMissing       = Definition{Code: "AUTH_TOKEN_MISSING", Message: "Auth token missing in response"}
	AuthIdentityIncomplete = Definition{Code: "AUTH_IDENTITY_INCOMPLETE", Message: "User identity fields missing in response"}
	AuthShapeUnknown       = Definition{Code: "AUTH_SHAPE_UNKNOWN", Message: "Unrecognized auth response shape"}
	Unauthorized           = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
)

// 引导流程错误。
var (
	OnboardingNoSession   = Definition{Code: "ONBOARDING_NO_SESSION", Message: "No active onboarding session"}
	OnboardingStepInvalid = Definition{Code: "ONBOARDING_STEP_INVALID", Message: "Onboarding step invalid"}
	OnboardingCompleted   = Definition{Code: "ONBOARDING_COMPLETED", Message: "Onboarding already completed"}
)

// 支付环节错误。Abandoned 不算失败，收银台被关掉后允许重新选择方式。
var (
	PaymentAbandoned        = Definition{Code: "PAYMENT_ABANDONED", Message: "Payment abandoned, retry available"}
	PaymentFailed           = Definition{Code: "PAYMENT_FAILED", Message: "Payment failed"}
	PaymentMethodNotChosen  = Definition{Code: "PAYMENT_METHOD_NOT_CHOSEN", Message: "Payment method not chosen"}
	PaymentAlreadySettled   = Definition{Code: "PAYMENT_ALREADY_SETTLED", Message: "Payment already settled"}
	OTPCodeIncomplete       = Definition{Code: "OTP_CODE_INCOMPLETE", Message: "OTP code incomplete"}
	OTPVerificationFailed   = Definition{Code: "OTP_VERIFICATION_FAILED", Message: "OTP verification failed"}
	CheckoutGatewayNotReady = Definition{Code: "CHECKOUT_GATEWAY_NOT_READY", Message: "Checkout gateway not configured"}
)

// 本地状态存储错误。
var (
	StateBackendInvalid = Definition{Code: "STATE_BACKEND_INVALID", Message: "State backend invalid"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	AuthTokenMissing.Code:        AuthTokenMissing,
	AuthIdentityIncomplete.Code:  AuthIdentityIncomplete,
	AuthShapeUnknown.Code:        AuthShapeUnknown,
	Unauthorized.Code:            Unauthorized,
	OnboardingNoSession.Code:     OnboardingNoSession,
	OnboardingStepInvalid.Code:   OnboardingStepInvalid,
	OnboardingCompleted.Code:     OnboardingCompleted,
	PaymentAbandoned.Code:        PaymentAbandoned,
	PaymentFailed.Code:           PaymentFailed,
	PaymentMethodNotChosen.Code:  PaymentMethodNotChosen,
	PaymentAlreadySettled.Code:   PaymentAlreadySettled,
	OTPCodeIncomplete.Code:       OTPCodeIncomplete,
	OTPVerificationFailed.Code:   OTPVerificationFailed,
	CheckoutGatewayNotReady.Code: CheckoutGatewayNotReady,
	StateBackendInvalid.Code:     StateBackendInvalid,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}
