package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/pkg/crypto"
	"github.com/prn-tf/freshdeal/internal/validation"
)

func TestAccountService_Register(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		wantRole   domain.Role
		wantStatus domain.AccountStatus
		wantErr    error
	}{
		{name: "buyer is approved", role: "BUYER", wantRole: domain.RoleBuyer, wantStatus: domain.AccountApproved},
		{name: "default role is buyer", role: "", wantRole: domain.RoleBuyer, wantStatus: domain.AccountApproved},
		{name: "lower case role", role: "seller", wantRole: domain.RoleSeller, wantStatus: domain.AccountPending},
		{name: "admin is approved", role: "ADMIN", wantRole: domain.RoleAdmin, wantStatus: domain.AccountApproved},
		{name: "unknown role", role: "MANAGER", wantErr: domain.ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, crypto.PlainHasher{})

			a, err := env.accounts.Register(context.Background(), RegisterInput{
				Username: "alice", Password: "pw123456", Role: tt.role,
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, a.Role)
			assert.Equal(t, tt.wantStatus, a.Status)
			assert.Regexp(t, `^ACC-[0-9A-F]{8}$`, a.AccountID)
			assert.Equal(t, "pw123456", a.Password)
		})
	}
}

func TestAccountService_Register_UsernameUnique(t *testing.T) {
	env := newTestEnv(t, crypto.PlainHasher{})
	env.register(t, "alice", "pw123456", domain.RoleBuyer)

	for _, name := range []string{"alice", "ALICE", "Alice"} {
		for _, role := range []string{"BUYER", "SELLER", "ADMIN"} {
			_, err := env.accounts.Register(context.Background(), RegisterInput{Username: name, Password: "x", Role: role})
			assert.ErrorIs(t, err, domain.ErrAccountAlreadyExists, "%s/%s", name, role)
		}
	}

	accounts, err := env.store.Accounts.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestAccountService_Register_Validation(t *testing.T) {
	env := newTestEnv(t, crypto.PlainHasher{})

	_, err := env.accounts.Register(context.Background(), RegisterInput{Username: "alice"})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "password is required", validation.Message(err))
}

func TestAccountService_Login(t *testing.T) {
	env := newTestEnv(t, crypto.PlainHasher{})
	alice := env.register(t, "alice", "pw123456", domain.RoleBuyer)
	env.register(t, "bob", "pw123456", domain.RoleSeller)
	env.register(t, "carol", "pw123456", domain.RoleSeller)
	_, err := env.accounts.UpdateStatus(context.Background(), UpdateStatusInput{Admin: "root", Target: "carol", Status: "DENIED"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "approved buyer", username: "alice", password: "pw123456"},
		{name: "pending seller", username: "bob", password: "pw123456", wantErr: domain.ErrAccountPending},
		{name: "denied seller", username: "carol", password: "pw123456", wantErr: domain.ErrAccountDenied},
		{name: "wrong password", username: "alice", password: "nope", wantErr: domain.ErrInvalidCredentials},
		{name: "unknown user", username: "mallory", password: "pw123456", wantErr: domain.ErrInvalidCredentials},
		{name: "username is case sensitive", username: "ALICE", password: "pw123456", wantErr: domain.ErrInvalidCredentials},
		{name: "wrong password for pending seller", username: "bob", password: "nope", wantErr: domain.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := env.accounts.Login(context.Background(), LoginInput{Username: tt.username, Password: tt.password})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, alice.AccountID, a.AccountID)
			assert.Equal(t, domain.RoleBuyer, a.Role)
		})
	}
}

func TestAccountService_ApproveThenLogin(t *testing.T) {
	env := newTestEnv(t, crypto.PlainHasher{})
	env.register(t, "bob", "pw123456", domain.RoleSeller)

	updated, err := env.accounts.UpdateStatus(context.Background(), UpdateStatusInput{Admin: "admin", Target: "bob", Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, domain.AccountApproved, updated.Status)

	a, err := env.accounts.Login(context.Background(), LoginInput{Username: "bob", Password: "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSeller, a.Role)
}

func TestAccountService_UpdateStatus_Errors(t *testing.T) {
	env := newTestEnv(t, crypto.PlainHasher{})
	env.register(t, "bob", "pw123456", domain.RoleSeller)

	_, err := env.accounts.UpdateStatus(context.Background(), UpdateStatusInput{Target: "ghost", Status: "APPROVED"})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = env.accounts.UpdateStatus(context.Background(), UpdateStatusInput{Target: "bob", Status: "BANNED"})
	assert.ErrorIs(t, err, domain.ErrInvalidAccountStatus)
}

func TestAccountService_Delete(t *testing.T) {
	env := newTestEnv(t, crypto.PlainHasher{})
	env.register(t, "alice", "pw", domain.RoleBuyer)
	env.register(t, "bob", "pw", domain.RoleBuyer)

	require.NoError(t, env.accounts.Delete(context.Background(), "admin", "alice"))
	assert.ErrorIs(t, env.accounts.Delete(context.Background(), "admin", "alice"), domain.ErrAccountNotFound)

	accounts, err := env.accounts.List(context.Background(), "admin")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "bob", accounts[0].Username)
}

func TestAccountService_ChangePassword(t *testing.T) {
	for name, hasher := range map[string]crypto.PasswordHasher{
		"plain":  crypto.PlainHasher{},
		"bcrypt": crypto.NewBcryptHasher(4),
	} {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, hasher)
			env.register(t, "alice", "old-pass", domain.RoleBuyer)
			before, err := env.store.Accounts.List(context.Background())
			require.NoError(t, err)

			err = env.accounts.ChangePassword(context.Background(), ChangePasswordInput{
				Username: "alice", OldPassword: "wrong", NewPassword: "new-pass",
			})
			require.ErrorIs(t, err, domain.ErrIncorrectPassword)

			after, err := env.store.Accounts.List(context.Background())
			require.NoError(t, err)
			assert.Equal(t, before[0].Password, after[0].Password)

			err = env.accounts.ChangePassword(context.Background(), ChangePasswordInput{
				Username: "ghost", OldPassword: "x", NewPassword: "y",
			})
			require.ErrorIs(t, err, domain.ErrAccountNotFound)

			require.NoError(t, env.accounts.ChangePassword(context.Background(), ChangePasswordInput{
				Username: "alice", OldPassword: "old-pass", NewPassword: "new-pass",
			}))

			_, err = env.accounts.Login(context.Background(), LoginInput{Username: "alice", Password: "old-pass"})
			assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
			_, err = env.accounts.Login(context.Background(), LoginInput{Username: "alice", Password: "new-pass"})
			assert.NoError(t, err)
		})
	}
}

func TestAccountService_BcryptNeverStoresPlaintext(t *testing.T) {
	env := newTestEnv(t, crypto.NewBcryptHasher(4))
	env.register(t, "alice", "pw123456", domain.RoleBuyer)

	accounts, err := env.store.Accounts.List(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "pw123456", accounts[0].Password)

	_, err = env.accounts.Login(context.Background(), LoginInput{Username: "alice", Password: "pw123456"})
	assert.NoError(t, err)
}

func TestAccountService_Authorize(t *testing.T) {
	env := newTestEnv(t, crypto.PlainHasher{})
	env.register(t, "root", "pw", domain.RoleAdmin)
	env.register(t, "alice", "pw", domain.RoleBuyer)

	assert.NoError(t, env.accounts.Authorize(context.Background(), "root"))
	assert.ErrorIs(t, env.accounts.Authorize(context.Background(), "alice"), domain.ErrAccessDenied)
	assert.ErrorIs(t, env.accounts.Authorize(context.Background(), "nobody"), domain.ErrAccessDenied)

	_, err := env.accounts.UpdateStatus(context.Background(), UpdateStatusInput{Target: "root", Status: "DENIED"})
	require.NoError(t, err)
	assert.ErrorIs(t, env.accounts.Authorize(context.Background(), "root"), domain.ErrAccessDenied)
}

func TestAccountService_EnsureAdmin(t *testing.T) {
	env := newTestEnv(t, crypto.PlainHasher{})

	created, err := env.accounts.EnsureAdmin(context.Background(), "root", "secret")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.accounts.EnsureAdmin(context.Background(), "ROOT", "other")
	require.NoError(t, err)
	assert.False(t, created)

	a, err := env.accounts.Login(context.Background(), LoginInput{Username: "root", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, a.Role)
}

func TestAccountService_Logs(t *testing.T) {
	env := newTestEnv(t, crypto.PlainHasher{})
	env.register(t, "alice", "pw", domain.RoleBuyer)
	_, _ = env.accounts.Login(context.Background(), LoginInput{Username: "alice", Password: "bad"})

	entries, err := env.accounts.Logs(context.Background(), "admin")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "REGISTER", entries[0].Action)
	assert.Equal(t, "LOGIN", entries[1].Action)
	assert.Equal(t, domain.ResultFailed, entries[1].Result)
	assert.Equal(t, "FETCH_LOGS", entries[2].Action)
}

func TestAccountService_StorageFailure(t *testing.T) {
	repo := new(mockAccountRepository)
	repo.On("List", mock.Anything).Return(nil, errors.New("disk gone"))
	repo.On("Update", mock.Anything, mock.Anything).Return(errors.New("disk gone"))

	svc := NewAccountService(repo, crypto.PlainHasher{}, validation.New(), nil, zerolog.Nop())

	_, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "pw"})
	assert.ErrorIs(t, err, ErrInternalError)
	assert.False(t, domain.IsBusinessError(err))

	_, err = svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "pw"})
	assert.ErrorIs(t, err, ErrInternalError)

	err = svc.Delete(context.Background(), "admin", "alice")
	assert.ErrorIs(t, err, ErrInternalError)
}

