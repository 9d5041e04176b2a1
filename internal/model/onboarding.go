package model

// RegistrationResult 表示注册接口（step1）成功后的响应数据。
type RegistrationResult struct {
	Token       string `json:"token"`
	SessionID   string `json:"sessionId"`
	CurrentStep int    `json:"currentStep"`
	Email       string `json:"email"`
}

// SessionStatus 表示引导进度查询接口的响应数据。
// 服务端历史上同时出现过 isCompleted 和 onboardingCompleted 两个字段名，二者等价。
type SessionStatus struct {
	SessionID           string `json:"sessionId"`
	CurrentStep         int    `json:"currentStep"`
	IsCompleted         bool   `json:"isCompleted"`
	OnboardingCompleted bool   `json:"onboardingCompleted"`
}

// Finished 判断该进度是否已完成。
func (s SessionStatus) Finished() bool {
	return s.IsCompleted || s.OnboardingCompleted
}

// StepAck 表示某个步骤提交成功后的确认。
// CurrentStep 为服务端确认后的最新步骤号；为 0 时视为服务端未返回，本地 +1。
type StepAck struct {
	SessionID   string `json:"sessionId"`
	CurrentStep int    `json:"currentStep"`
}

// AdmissionDetails 表示入驻信息（step2）的提交内容。
type AdmissionDetails struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	IDProof  string `json:"idProof,omitempty"`
}

// Plan 表示一个可选的租座方案。
type Plan struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Duration string `json:"duration"`
}

// Seat 表示一个可选座位。
type Seat struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Zone   string `json:"zone"`
	Booked bool   `json:"booked"`
}
