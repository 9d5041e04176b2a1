package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StudySpace/internal/model"
	pkgerrors "StudySpace/pkg/errors"
)

func TestNormalizeLoginAcceptsAllShapes(t *testing.T) {
	want := Credentials{
		Token: "tok-123",
		User: model.Identity{
			ID:    "u1",
			Name:  "Asha",
			Email: "asha@example.com",
			Role:  model.RoleStudent,
		},
	}

	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "flat",
			raw:  `{"token":"tok-123","user":{"id":"u1","name":"Asha","email":"asha@example.com","role":"student"}}`,
		},
		{
			name: "nested",
			raw:  `{"ok":true,"data":{"token":"tok-123","user":{"id":"u1","name":"Asha","email":"asha@example.com","role":"student"}}}`,
		},
		{
			name: "legacy flat data",
			raw:  `{"data":{"token":"tok-123","id":"u1","name":"Asha","email":"asha@example.com","role":"student"}}`,
		},
		{
			name: "legacy with _id",
			raw:  `{"data":{"token":"tok-123","_id":"u1","name":"Asha","email":"asha@example.com","role":"student"}}`,
		},
		{
			name: "nested with userId",
			raw:  `{"data":{"token":"tok-123","user":{"userId":"u1","name":"Asha","email":"asha@example.com","role":"student"}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeLogin([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestNormalizeLoginDefaultsRoleToStudent(t *testing.T) {
	got, err := NormalizeLogin([]byte(`{"token":"t","user":{"id":"u1","email":"a@b.com"}}`))
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, got.User.Role)
}

func TestNormalizeLoginMissingToken(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "flat without token", raw: `{"user":{"id":"u1","email":"a@b.com"}}`},
		{name: "nested without token", raw: `{"data":{"user":{"id":"u1","email":"a@b.com"}}}`},
		{name: "legacy without token", raw: `{"data":{"id":"u1","email":"a@b.com"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeLogin([]byte(tt.raw))
			assert.ErrorIs(t, err, pkgerrors.AuthTokenMissing)
		})
	}
}

func TestNormalizeLoginMissingIdentityFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "no id", raw: `{"token":"t","user":{"email":"a@b.com"}}`},
		{name: "no email", raw: `{"token":"t","user":{"id":"u1"}}`},
		{name: "legacy no email", raw: `{"data":{"token":"t","id":"u1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeLogin([]byte(tt.raw))
			assert.ErrorIs(t, err, pkgerrors.AuthIdentityIncomplete)
		})
	}
}

func TestNormalizeLoginUnknownShape(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty object", raw: `{}`},
		{name: "token only", raw: `{"token":"t"}`},
		{name: "not json", raw: `<html>`},
		{name: "null data", raw: `{"data":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeLogin([]byte(tt.raw))
			assert.ErrorIs(t, err, pkgerrors.AuthShapeUnknown)
		})
	}
}
