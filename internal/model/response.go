package model

import "encoding/json"

// Envelope 表示后端统一响应结构 { ok, msg, data }。
// data 的具体形状随接口不同，这里保持原始字节交给调用方解码。
type Envelope struct {
	OK   bool            `json:"ok"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// ErrorBody 表示后端错误响应主体。历史版本字段名不统一，msg/message 都出现过。
type ErrorBody struct {
	Msg     string `json:"msg"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Text 返回可用的错误文案，服务端文案优先。
func (e ErrorBody) Text() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Message
}
