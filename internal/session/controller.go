// Package session 是引导流程的决策中枢：给定一次服务端应答，决定用户下一个去处，
// 并让持久化状态与该决定保持一致。步骤判断集中在路由表里，不散落在页面层。
package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"StudySpace/internal/auth"
	"StudySpace/internal/model"
	"StudySpace/internal/store"
	pkgerrors "StudySpace/pkg/errors"
)

// StatusAPI 引导进度查询。单独抽出来，登录解析时要能断言"管理员从不查询进度"。
type StatusAPI interface {
	SessionStatus(ctx context.Context) (model.SessionStatus, error)
}

// Controller 引导会话控制器。
type Controller struct {
	store  store.Store
	status StatusAPI
	routes model.RouteTable
	logger *zap.Logger
}

// NewController 构造控制器，routes 传 nil 使用默认步骤路由表。
func NewController(st store.Store, statusAPI StatusAPI, routes model.RouteTable, logger *zap.Logger) *Controller {
	if routes == nil {
		routes = model.DefaultRouteTable()
	}
	return &Controller{
		store:  st,
		status: statusAPI,
		routes: routes,
		logger: logger,
	}
}

// StartSession 注册成功后建立引导会话并持久化，替换任何旧的恢复目标。
// 注册响应必须带 token，缺失是契约违规，直接报错而不是带着空 token 往下走。
func (c *Controller) StartSession(ctx context.Context, reg model.RegistrationResult) error {
	if reg.Token == "" {
		return pkgerrors.AuthTokenMissing
	}

	step := reg.CurrentStep
	if step <= 0 {
		step = 1
	}

	session := model.OnboardingSession{
		SessionID:   reg.SessionID,
		CurrentStep: step,
		Email:       reg.Email,
	}

	if err := c.store.Commit(ctx, store.Mutation{Token: &reg.Token, Session: &session}); err != nil {
		return err
	}

	c.logger.Info("Onboarding session started",
		zap.String("session_id", session.SessionID),
		zap.Int("current_step", session.CurrentStep),
	)
	return nil
}

// ResolveDestination 登录成功后的落点决策：
//  1. 管理员等特权角色直接回各自首页，不查询引导进度；
//  2. 学员查询进度，未完成则恢复到对应步骤并刷新本地会话；
//  3. 无会话或已完成视为引导结束，落到个人主页；
//  4. 进度查询本身失败时向"已完成"方向放行，登录成功绝不因状态检查困在重试里。
func (c *Controller) ResolveDestination(ctx context.Context, creds auth.Credentials) (model.Route, error) {
	if creds.Token == "" {
		return "", pkgerrors.AuthTokenMissing
	}

	if creds.User.Privileged() {
		if err := c.persistIdentity(ctx, creds); err != nil {
			return "", err
		}
		return model.RouteAdminDashboard, nil
	}

	status, err := c.status.SessionStatus(ctx)
	if err != nil {
		if !errors.Is(err, pkgerrors.OnboardingNoSession) {
			// 放行但留痕，事后有据可查
			c.logger.Warn("Session status check failed, treating onboarding as complete",
				zap.String("user_id", creds.User.ID),
				zap.Error(err),
			)
		}
		return c.finishOnboarding(ctx, creds)
	}

	if status.Finished() {
		return c.finishOnboarding(ctx, creds)
	}

	session := model.OnboardingSession{
		SessionID:   status.SessionID,
		CurrentStep: status.CurrentStep,
		Email:       creds.User.Email,
	}

	if err := c.store.Commit(ctx, store.Mutation{Token: &creds.Token, Session: &session}); err != nil {
		return "", err
	}

	route := c.routes.ForStep(status.CurrentStep)
	c.logger.Info("Resuming onboarding",
		zap.String("session_id", status.SessionID),
		zap.Int("current_step", status.CurrentStep),
		zap.String("route", string(route)),
	)
	return route, nil
}

// AdvanceStep 某步骤提交成功后推进会话。直接信任本次确认结果，不再查询进度。
func (c *Controller) AdvanceStep(ctx context.Context, ack model.StepAck) (model.Route, error) {
	state, err := c.store.Restore(ctx)
	if err != nil {
		return "", err
	}

	session := model.OnboardingSession{}
	if state.Session != nil {
		session = *state.Session
	}

	if session.Completed {
		c.logger.Warn("Advance requested on completed session, redirecting to profile",
			zap.String("session_id", session.SessionID),
		)
		return model.RouteStudentProfile, nil
	}

	next := ack.CurrentStep
	if next <= 0 {
		next = session.CurrentStep + 1
	}
	if ack.SessionID != "" {
		session.SessionID = ack.SessionID
	}
	session.CurrentStep = next

	if err := c.store.Commit(ctx, store.Mutation{Session: &session}); err != nil {
		return "", err
	}

	return c.routes.ForStep(next), nil
}

// CompleteFlow 终点步骤（支付结算）成功后收尾：丢弃引导会话，落盘最终身份。
func (c *Controller) CompleteFlow(ctx context.Context, creds auth.Credentials) (model.Route, error) {
	if creds.Token == "" {
		return "", pkgerrors.AuthTokenMissing
	}
	if creds.User.ID == "" || creds.User.Email == "" {
		return "", pkgerrors.AuthIdentityIncomplete
	}

	route, err := c.finishOnboarding(ctx, creds)
	if err != nil {
		return "", err
	}

	c.logger.Info("Onboarding flow completed",
		zap.String("user_id", creds.User.ID),
	)
	return route, nil
}

// Resume 开机恢复：不发网络请求，仅凭本地状态决定初始落点。
// 返回 false 表示本地没有任何可恢复状态，应进入登录页。
func (c *Controller) Resume(ctx context.Context) (model.Route, bool, error) {
	state, err := c.store.Restore(ctx)
	if err != nil {
		return "", false, err
	}

	switch {
	case state.Session != nil && !state.Session.Completed:
		return c.routes.ForStep(state.Session.CurrentStep), true, nil
	case state.User != nil && state.Token != "":
		if state.User.Privileged() {
			return model.RouteAdminDashboard, true, nil
		}
		return model.RouteStudentProfile, true, nil
	default:
		return "", false, nil
	}
}

// Logout 清空全部本地状态。
func (c *Controller) Logout(ctx context.Context) error {
	return c.store.Clear(ctx)
}

func (c *Controller) finishOnboarding(ctx context.Context, creds auth.Credentials) (model.Route, error) {
	if err := c.persistIdentity(ctx, creds); err != nil {
		return "", err
	}
	return model.RouteStudentProfile, nil
}

func (c *Controller) persistIdentity(ctx context.Context, creds auth.Credentials) error {
	user := creds.User
	return c.store.Commit(ctx, store.Mutation{Token: &creds.Token, User: &user})
}
