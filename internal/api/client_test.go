package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"StudySpace/internal/model"
	pkgerrors "StudySpace/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Options{BaseURL: srv.URL, Timeout: 5 * time.Second}, zap.NewNop())
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRegisterDecodesEnvelope(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/onboarding/step1/register", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"msg":"","data":{"token":"abc","sessionId":"s1","currentStep":1,"email":"a@b.com"}}`))
	}))

	result, err := client.Register(context.Background(), RegistrationRequest{
		Name: "Asha", Email: "a@b.com", Password: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationResult{
		Token: "abc", SessionID: "s1", CurrentStep: 1, Email: "a@b.com",
	}, result)
}

func TestRegisterDecodesBareBody(t *testing.T) {
	// 老版本接口没有信封
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"abc","sessionId":"s1","currentStep":1,"email":"a@b.com"}`))
	}))

	result, err := client.Register(context.Background(), RegistrationRequest{})
	require.NoError(t, err)
	assert.Equal(t, "abc", result.Token)
	assert.Equal(t, "s1", result.SessionID)
}

func TestSessionStatusNoActiveSession(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "404",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"ok":false,"msg":"No active session"}`))
			},
		},
		{
			name: "empty session id",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"ok":true,"data":{}}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.SessionStatus(context.Background())
			assert.ErrorIs(t, err, pkgerrors.OnboardingNoSession)
		})
	}
}

func TestSessionStatusDecodesProgress(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/onboarding/status", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"data":{"sessionId":"s1","currentStep":4,"onboardingCompleted":false}}`))
	}))
	client.SetToken("tok-1")

	status, err := client.SessionStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s1", status.SessionID)
	assert.Equal(t, 4, status.CurrentStep)
	assert.False(t, status.Finished())
}

func TestValidationRejectionKeepsServerMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"msg field", `{"ok":false,"msg":"Email already registered"}`},
		// 老版本接口用 message 字段
		{"legacy message field", `{"ok":false,"message":"Email already registered"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte(tt.body))
			}))

			_, err := client.Register(context.Background(), RegistrationRequest{Email: "a@b.com"})
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.True(t, apiErr.Validation())
			assert.False(t, apiErr.Transport())
			assert.Equal(t, "Email already registered", apiErr.Message)
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(Options{BaseURL: srv.URL, Timeout: time.Second}, zap.NewNop())
	defer client.Close()
	srv.Close() // 连接不上

	_, err := client.SessionStatus(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Transport())
	assert.False(t, apiErr.Validation())
}

func TestStepSubmissionDecodesAck(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/onboarding/step3/plan", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "plan-6m", body["planId"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"data":{"sessionId":"s1","currentStep":4}}`))
	}))

	ack, err := client.SelectPlan(context.Background(), "plan-6m")
	require.NoError(t, err)
	assert.Equal(t, model.StepAck{SessionID: "s1", CurrentStep: 4}, ack)
}

func TestCreateOrderAndOTP(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/onboarding/step5/create-order":
			assert.Equal(t, http.MethodPost, r.Method)
			w.Write([]byte(`{"ok":true,"data":{"orderId":"ord-1","amount":150000,"currency":"INR","planCode":"M6"}}`))
		case "/onboarding/step5/create-otp":
			assert.Equal(t, http.MethodGet, r.Method)
			w.Write([]byte(`{"ok":true,"data":{"challengeId":"ch-1","length":6,"expiresIn":300}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	order, err := client.CreateOrder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ord-1", order.OrderID)
	assert.Equal(t, int64(150000), order.Amount)

	challenge, err := client.CreateOTP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ch-1", challenge.ChallengeID)
	assert.Equal(t, 6, challenge.Length)
}

func TestLoginReturnsRawBodyForNormalization(t *testing.T) {
	payload := `{"ok":true,"data":{"token":"t","user":{"id":"u1","email":"a@b.com","role":"student"}}}`
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/login", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))

	raw, err := client.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(raw))
}
