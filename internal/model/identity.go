package model

// Role 账号角色枚举
type Role string

const (
	RoleStudent    Role = "student"    // 普通学员
	RoleAdmin      Role = "admin"      // 管理端账号
	RoleOnboarding Role = "onboarding" // 注册流程中的临时伪角色，真实角色确定后即被替换
)

// Identity 表示一个已确认的账号身份。
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Privileged 判断该角色是否绕过引导流程。管理端登录从不查询引导进度。
func (i Identity) Privileged() bool {
	return i.Role == RoleAdmin
}

// OnboardingSession 表示一次进行中的入驻登记进度。
// 注册成功时创建，每个步骤提交成功后推进，流程完成或登出时销毁。
type OnboardingSession struct {
	SessionID   string `json:"sessionId"`
	CurrentStep int    `json:"currentStep"`
	Email       string `json:"email"`
	Completed   bool   `json:"completed"`
}
