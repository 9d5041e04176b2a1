package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"StudySpace/internal/auth"
	"StudySpace/internal/model"
	"StudySpace/internal/store"
	pkgerrors "StudySpace/pkg/errors"
)

// statusMock 记录调用次数，断言"管理员从不查询进度"用。
type statusMock struct {
	calls  int
	status model.SessionStatus
	err    error
}

func (m *statusMock) SessionStatus(ctx context.Context) (model.SessionStatus, error) {
	m.calls++
	return m.status, m.err
}

func newController(st store.Store, status StatusAPI) *Controller {
	return NewController(st, status, nil, zap.NewNop())
}

func studentCreds() auth.Credentials {
	return auth.Credentials{
		Token: "tok-student",
		User:  model.Identity{ID: "u1", Name: "Asha", Email: "a@b.com", Role: model.RoleStudent},
	}
}

func TestStartSessionPersistsScaffold(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ctrl := newController(st, &statusMock{})

	reg := model.RegistrationResult{
		Token:       "abc",
		SessionID:   "s1",
		CurrentStep: 1,
		Email:       "a@b.com",
	}
	require.NoError(t, ctrl.StartSession(ctx, reg))

	state, err := st.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", state.Token)
	require.NotNil(t, state.Session)
	assert.Equal(t, model.OnboardingSession{SessionID: "s1", CurrentStep: 1, Email: "a@b.com"}, *state.Session)
	assert.Nil(t, state.User, "no user slice while onboarding")
}

func TestStartSessionRejectsMissingToken(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ctrl := newController(st, &statusMock{})

	err := ctrl.StartSession(ctx, model.RegistrationResult{SessionID: "s1"})
	assert.ErrorIs(t, err, pkgerrors.AuthTokenMissing)

	state, restoreErr := st.Restore(ctx)
	require.NoError(t, restoreErr)
	assert.Empty(t, state.Token, "nothing persisted on contract violation")
}

func TestResolveDestinationAdminBypassesStatusCheck(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	status := &statusMock{}
	ctrl := newController(st, status)

	creds := auth.Credentials{
		Token: "tok-admin",
		User:  model.Identity{ID: "a1", Email: "admin@b.com", Role: model.RoleAdmin},
	}

	route, err := ctrl.ResolveDestination(ctx, creds)
	require.NoError(t, err)
	assert.Equal(t, model.RouteAdminDashboard, route)
	assert.Zero(t, status.calls, "admin login must never query session status")
}

func TestResolveDestinationResumesIncompleteSession(t *testing.T) {
	tests := []struct {
		step int
		want model.Route
	}{
		{step: 1, want: model.RouteAdmission},
		{step: 2, want: model.RouteAdmission},
		{step: 3, want: model.RoutePlan},
		{step: 4, want: model.RouteSeat},
		{step: 5, want: model.RoutePayment},
		{step: 42, want: model.RouteAdmission}, // 未知步骤回退第一步
	}

	for _, tt := range tests {
		ctx := context.Background()
		st := store.NewMemoryStore()
		status := &statusMock{status: model.SessionStatus{SessionID: "s1", CurrentStep: tt.step}}
		ctrl := newController(st, status)

		route, err := ctrl.ResolveDestination(ctx, studentCreds())
		require.NoError(t, err)
		assert.Equal(t, tt.want, route, "step %d", tt.step)

		state, err := st.Restore(ctx)
		require.NoError(t, err)
		require.NotNil(t, state.Session, "resumed session must be persisted")
		assert.Equal(t, tt.step, state.Session.CurrentStep)
		assert.Equal(t, "tok-student", state.Token)
		assert.Nil(t, state.User, "stale user slice must be displaced by the scaffold")
	}
}

func TestResolveDestinationCompletedSession(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	status := &statusMock{status: model.SessionStatus{SessionID: "s1", CurrentStep: 4, IsCompleted: true}}
	ctrl := newController(st, status)

	route, err := ctrl.ResolveDestination(ctx, studentCreds())
	require.NoError(t, err)
	assert.Equal(t, model.RouteStudentProfile, route)

	state, err := st.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, state.Session)
	require.NotNil(t, state.User)
	assert.Equal(t, "u1", state.User.ID)
}

func TestResolveDestinationNoActiveSession(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	status := &statusMock{err: pkgerrors.OnboardingNoSession}
	ctrl := newController(st, status)

	route, err := ctrl.ResolveDestination(ctx, studentCreds())
	require.NoError(t, err)
	assert.Equal(t, model.RouteStudentProfile, route)
}

func TestResolveDestinationFailsOpenOnStatusError(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	status := &statusMock{err: assert.AnError}
	ctrl := newController(st, status)

	route, err := ctrl.ResolveDestination(ctx, studentCreds())
	require.NoError(t, err, "a status check failure must not surface as a login failure")
	assert.Equal(t, model.RouteStudentProfile, route)

	state, restoreErr := st.Restore(ctx)
	require.NoError(t, restoreErr)
	require.NotNil(t, state.User)
	assert.Equal(t, "tok-student", state.Token)
}

func TestAdvanceStepTrustsAcknowledgedStep(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	status := &statusMock{}
	ctrl := newController(st, status)

	require.NoError(t, ctrl.StartSession(ctx, model.RegistrationResult{
		Token: "abc", SessionID: "s1", CurrentStep: 2, Email: "a@b.com",
	}))

	route, err := ctrl.AdvanceStep(ctx, model.StepAck{SessionID: "s1", CurrentStep: 3})
	require.NoError(t, err)
	assert.Equal(t, model.RoutePlan, route)
	assert.Zero(t, status.calls, "step advance must not re-query session status")

	state, err := st.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, state.Session)
	assert.Equal(t, 3, state.Session.CurrentStep, "persisted step reflects the acknowledged step")
}

func TestAdvanceStepWithoutServerStepIncrementsLocally(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ctrl := newController(st, &statusMock{})

	require.NoError(t, ctrl.StartSession(ctx, model.RegistrationResult{
		Token: "abc", SessionID: "s1", CurrentStep: 3,
	}))

	route, err := ctrl.AdvanceStep(ctx, model.StepAck{SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, model.RouteSeat, route)
}

func TestAdvanceStepOnCompletedSessionGoesToProfile(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ctrl := newController(st, &statusMock{})

	session := model.OnboardingSession{SessionID: "s1", CurrentStep: 5, Completed: true}
	tok := "abc"
	require.NoError(t, st.Commit(ctx, store.Mutation{Token: &tok, Session: &session}))

	route, err := ctrl.AdvanceStep(ctx, model.StepAck{SessionID: "s1", CurrentStep: 2})
	require.NoError(t, err)
	assert.Equal(t, model.RouteStudentProfile, route, "a completed flow is never re-entered")
}

func TestCompleteFlowReplacesScaffold(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ctrl := newController(st, &statusMock{})

	require.NoError(t, ctrl.StartSession(ctx, model.RegistrationResult{
		Token: "scaffold", SessionID: "s1", CurrentStep: 5, Email: "a@b.com",
	}))

	route, err := ctrl.CompleteFlow(ctx, studentCreds())
	require.NoError(t, err)
	assert.Equal(t, model.RouteStudentProfile, route)

	state, err := st.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, state.Session, "scaffold discarded after completion")
	require.NotNil(t, state.User)
	assert.Equal(t, "tok-student", state.Token)
}

func TestCompleteFlowValidatesPayload(t *testing.T) {
	ctx := context.Background()
	ctrl := newController(store.NewMemoryStore(), &statusMock{})

	_, err := ctrl.CompleteFlow(ctx, auth.Credentials{User: model.Identity{ID: "u1", Email: "a@b.com"}})
	assert.ErrorIs(t, err, pkgerrors.AuthTokenMissing)

	_, err = ctrl.CompleteFlow(ctx, auth.Credentials{Token: "t", User: model.Identity{ID: "u1"}})
	assert.ErrorIs(t, err, pkgerrors.AuthIdentityIncomplete)
}

func TestResumeDecidesInitialDestination(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	ctrl := newController(st, &statusMock{})

	// 空状态：进登录页
	_, ok, err := ctrl.Resume(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// 有会话：回到对应步骤
	require.NoError(t, ctrl.StartSession(ctx, model.RegistrationResult{
		Token: "abc", SessionID: "s1", CurrentStep: 4,
	}))
	route, ok, err := ctrl.Resume(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.RouteSeat, route)

	// 完整身份：回到个人主页
	_, err = ctrl.CompleteFlow(ctx, studentCreds())
	require.NoError(t, err)
	route, ok, err = ctrl.Resume(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.RouteStudentProfile, route)
}
