package service

import (
	"context"
	"testing"

	"dishdash/pkg/logger"
	"dishdash/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserFixture() (UserService, *fakeStorage) {
	stg := newFakeStorage()
	return NewUserService(stg, logger.New("test", "error")), stg
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, _ := newUserFixture()

	user, err := svc.Register(context.Background(), "  Jamie@Example.com ", "hunter2hunter2", "Jamie Ortega", nil)
	require.NoError(t, err)
	assert.Equal(t, "jamie@example.com", user.Email)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)

	got, err := svc.Authenticate(context.Background(), "jamie@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(context.Background(), "jamie@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newUserFixture()

	tests := []struct {
		name     string
		email    string
		password string
		fullName string
		field    string
	}{
		{"bad email", "not-an-email", "hunter2hunter2", "Jamie", "email"},
		{"short password", "jamie@example.com", "short", "Jamie", "password"},
		{"missing name", "jamie@example.com", "hunter2hunter2", "  ", "full_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.email, tt.password, tt.fullName, nil)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.Register(context.Background(), "jamie@example.com", "hunter2hunter2", "Jamie Ortega", nil)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "JAMIE@example.com", "another-password", "Impostor", nil)
	assert.ErrorIs(t, err, ErrEmailTaken)
}
