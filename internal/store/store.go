// Package store 持久化三片本地状态：token、user、session，进程重启后恢复。
// 三片互相独立，单片损坏只丢弃该片；写入 token+user 组合时会清掉 session，
// 引导会话只是账号会话建立前的脚手架，两者不同时作为恢复目标。
package store

import (
	"context"

	"StudySpace/internal/model"
)

const (
	sliceToken   = "token"
	sliceUser    = "user"
	sliceSession = "session"
)

// State 表示一次恢复出的全部状态，缺失的片为零值。
type State struct {
	Token   string
	User    *model.Identity
	Session *model.OnboardingSession
}

// Mutation 表示一次提交，只写给出的片，nil 片保持原样。
type Mutation struct {
	Token   *string
	User    *model.Identity
	Session *model.OnboardingSession
}

// replacesSession 判断该提交是否写入完整账号会话（token+user），
// 此时残留的引导会话必须一并清除。
func (m Mutation) replacesSession() bool {
	return m.Token != nil && m.User != nil && m.Session == nil
}

// replacesUser 反方向同理：写入引导会话时清掉残留的账号身份，
// 恢复目标任何时刻只有一个。
func (m Mutation) replacesUser() bool {
	return m.Session != nil && m.User == nil
}

// Store 定义本地状态存储。实现必须保证片粒度的原子替换，最后写入者生效。
type Store interface {
	Restore(ctx context.Context) (State, error)
	Commit(ctx context.Context, m Mutation) error
	Clear(ctx context.Context) error
}
