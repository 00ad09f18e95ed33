package users_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hubcentral/go-session-hub/users"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid", password: "Password1", wantErr: false},
		{name: "too short", password: "Pw1", wantErr: true},
		{name: "no uppercase", password: "password1", wantErr: true},
		{name: "no lowercase", password: "PASSWORD1", wantErr: true},
		{name: "no digit", password: "Passwords", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tc.password)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := users.HashPassword("Password1")
	require.NoError(t, err)
	require.NotEqual(t, "Password1", hash)

	require.True(t, users.CheckPasswordHash("Password1", hash))
	require.False(t, users.CheckPasswordHash("Password2", hash))
}

func TestGenerateRecoveryCodes(t *testing.T) {
	plain, hashed, err := users.GenerateRecoveryCodes(4)
	require.NoError(t, err)
	require.Len(t, plain, 4)
	require.Len(t, hashed, 4)

	for i, code := range plain {
		require.Len(t, code, 10)
		require.True(t, users.CheckPasswordHash(code, hashed[i]))
	}
}

func TestConsumeRecoveryCodeSpendsExactlyOne(t *testing.T) {
	plain, hashed, err := users.GenerateRecoveryCodes(3)
	require.NoError(t, err)

	user := &users.User{RecoveryCodes: hashed}

	require.True(t, user.ConsumeRecoveryCode(plain[1]))
	require.Len(t, user.RecoveryCodes, 2)

	// The same code cannot be spent twice.
	require.False(t, user.ConsumeRecoveryCode(plain[1]))
	require.True(t, user.ConsumeRecoveryCode(plain[0]))
	require.False(t, user.ConsumeRecoveryCode("not-a-code"))
}

func TestIsAdmin(t *testing.T) {
	require.True(t, (&users.User{Role: users.RoleAdmin}).IsAdmin())
	require.True(t, (&users.User{Superuser: true}).IsAdmin())
	require.False(t, (&users.User{Role: users.RoleUser}).IsAdmin())
}
