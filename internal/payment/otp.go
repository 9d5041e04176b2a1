package payment

import "strings"

// OTPInput 固定位数的数字码收集器，对应前台逐格输入的交互：
// 每格一位数字，填完最后一格自动提交；重新请求验证码时全部清空并回到第一格。
type OTPInput struct {
	digits []string
	focus  int
}

func NewOTPInput(length int) *OTPInput {
	return &OTPInput{digits: make([]string, length)}
}

// SetDigit 在指定格写入一个字符。非数字忽略，多字符只保留最后一位。
// 返回是否所有格子都已填满。
func (o *OTPInput) SetDigit(index int, value string) bool {
	if index < 0 || index >= len(o.digits) {
		return o.Complete()
	}

	if value == "" {
		o.digits[index] = ""
		return false
	}

	last := value[len(value)-1:]
	if last < "0" || last > "9" {
		return o.Complete()
	}

	o.digits[index] = last
	if index < len(o.digits)-1 {
		o.focus = index + 1
	}

	return o.Complete()
}

// Backspace 清掉当前格，若本就为空则回退一格。
func (o *OTPInput) Backspace(index int) {
	if index < 0 || index >= len(o.digits) {
		return
	}
	if o.digits[index] == "" && index > 0 {
		o.focus = index - 1
		o.digits[index-1] = ""
		return
	}
	o.digits[index] = ""
}

// Reset 清空全部格子并聚焦第一格。
func (o *OTPInput) Reset() {
	for i := range o.digits {
		o.digits[i] = ""
	}
	o.focus = 0
}

// Complete 判断是否填满。
func (o *OTPInput) Complete() bool {
	for _, d := range o.digits {
		if d == "" {
			return false
		}
	}
	return true
}

// Code 返回拼接后的完整验证码。
func (o *OTPInput) Code() string {
	return strings.Join(o.digits, "")
}

// Focus 返回当前聚焦的格子下标。
func (o *OTPInput) Focus() int {
	return o.focus
}

// Length 返回码长。
func (o *OTPInput) Length() int {
	return len(o.digits)
}
