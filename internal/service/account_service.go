package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/freshdeal/internal/audit"
	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/pkg/crypto"
	"github.com/prn-tf/freshdeal/internal/repository"
	"github.com/prn-tf/freshdeal/internal/validation"
)

// Audit actions raised by AccountService.
const (
	actionLogin          = "LOGIN"
	actionRegister       = "REGISTER"
	actionFetchAllUsers  = "FETCH_ALL_USERS"
	actionUpdateStatus   = "UPDATE_USER_STATUS"
	actionDeleteUser     = "DELETE_USER"
	actionChangePassword = "CHANGE_PASSWORD"
	actionFetchLogs      = "FETCH_LOGS"
	actionBootstrapAdmin = "BOOTSTRAP_ADMIN"
)

// AccountService handles registration, login and account administration.
type AccountService struct {
	accounts repository.AccountRepository
	hasher   crypto.PasswordHasher
	validate *validation.Validator
	audit    *audit.Logger
	logger   zerolog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	accounts repository.AccountRepository,
	hasher crypto.PasswordHasher,
	validate *validation.Validator,
	auditLog *audit.Logger,
	logger zerolog.Logger,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		hasher:   hasher,
		validate: validate,
		audit:    auditLog,
		logger:   logger.With().Str("service", "account").Logger(),
	}
}

// =============================================================================
// Login / Register
// =============================================================================

// LoginInput contains the credentials of a login attempt.
type LoginInput struct {
	Username string
	Password string
}

// Login checks credentials and returns the approved account.
// It returns ErrInvalidCredentials for an unknown username or wrong password
// alike, and ErrAccountPending or ErrAccountDenied for accounts that are not
// approved.
func (s *AccountService) Login(ctx context.Context, input LoginInput) (*domain.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, internalError(s.logger, err, "failed to read accounts")
	}

	idx := indexOfAccount(accounts, input.Username)
	if idx < 0 || !s.verify(accounts[idx], input.Password) {
		s.audit.Failure(ctx, input.Username, actionLogin, "invalid credentials")
		return nil, domain.NewDomainError(domain.ErrInvalidCredentials, "", "")
	}

	account := accounts[idx]
	switch account.Status {
	case domain.AccountPending:
		s.audit.Failure(ctx, input.Username, actionLogin, "status=PENDING")
		return nil, domain.NewDomainError(domain.ErrAccountPending, "", account.Username)
	case domain.AccountDenied:
		s.audit.Failure(ctx, input.Username, actionLogin, "status=DENIED")
		return nil, domain.NewDomainError(domain.ErrAccountDenied, "", account.Username)
	}

	s.audit.Success(ctx, input.Username, actionLogin, "role="+string(account.Role))
	return &account, nil
}

func (s *AccountService) verify(account domain.Account, password string) bool {
	ok, err := s.hasher.Verify(account.Password, password)
	if err != nil {
		// A stored value the hasher cannot read never matches.
		s.logger.Warn().Err(err).Str("username", account.Username).Msg("stored password is not in the configured format")
		return false
	}
	return ok
}

// RegisterInput contains the data needed to create an account.
type RegisterInput struct {
	Username string `xml:"username" validate:"required,max=64"`
	Password string `xml:"password" validate:"required,max=72"`

	// Role is ADMIN, BUYER or SELLER. Empty means BUYER.
	Role string `xml:"role"`
}

// Register creates an account. Sellers start PENDING, everyone else APPROVED.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(input.Role)
	if err != nil {
		s.audit.Failure(ctx, input.Username, actionRegister, "role="+input.Role)
		return nil, err
	}

	stored, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, internalError(s.logger, err, "failed to hash password")
	}

	var created domain.Account
	err = s.accounts.Update(ctx, func(accounts []domain.Account) ([]domain.Account, error) {
		for i := range accounts {
			if accounts[i].SameUsername(input.Username) {
				return nil, domain.NewDomainError(domain.ErrAccountAlreadyExists, "", input.Username)
			}
		}
		account := domain.NewAccount(input.Username, stored, role)
		for accountIDTaken(accounts, account.AccountID) {
			account.AccountID = domain.NewAccountID()
		}
		created = *account
		return append(accounts, created), nil
	})
	if err != nil {
		if domain.IsBusinessError(err) {
			s.audit.Failure(ctx, input.Username, actionRegister, "username taken")
			return nil, err
		}
		return nil, internalError(s.logger, err, "failed to register account")
	}

	s.logger.Info().
		Str("username", created.Username).
		Str("account_id", created.AccountID).
		Str("role", string(created.Role)).
		Msg("account registered")
	s.audit.Success(ctx, created.Username, actionRegister,
		fmt.Sprintf("role=%s, status=%s", created.Role, created.Status))

	return &created, nil
}

// =============================================================================
// Administration
// =============================================================================

// List returns every account. requester is only recorded in the audit log.
func (s *AccountService) List(ctx context.Context, requester string) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, internalError(s.logger, err, "failed to read accounts")
	}
	s.audit.Success(ctx, requester, actionFetchAllUsers, fmt.Sprintf("count=%d", len(accounts)))
	return accounts, nil
}

// UpdateStatusInput contains the data needed to change an account's status.
type UpdateStatusInput struct {
	Admin  string
	Target string
	Status string
}

// UpdateStatus sets the approval status of the account named Target.
func (s *AccountService) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*domain.Account, error) {
	status, err := domain.ParseAccountStatus(input.Status)
	if err != nil {
		return nil, err
	}

	var updated domain.Account
	err = s.accounts.Update(ctx, func(accounts []domain.Account) ([]domain.Account, error) {
		idx := indexOfAccount(accounts, input.Target)
		if idx < 0 {
			return nil, domain.NewDomainError(domain.ErrAccountNotFound, "", input.Target)
		}
		accounts[idx].Status = status
		updated = accounts[idx]
		return accounts, nil
	})
	if err != nil {
		if domain.IsBusinessError(err) {
			return nil, err
		}
		return nil, internalError(s.logger, err, "failed to update account status")
	}

	s.audit.Success(ctx, input.Admin, actionUpdateStatus,
		fmt.Sprintf("target=%s, newStatus=%s", input.Target, status))
	return &updated, nil
}

// Delete removes the account named target.
func (s *AccountService) Delete(ctx context.Context, admin, target string) error {
	err := s.accounts.Update(ctx, func(accounts []domain.Account) ([]domain.Account, error) {
		idx := indexOfAccount(accounts, target)
		if idx < 0 {
			return nil, domain.NewDomainError(domain.ErrAccountNotFound, "", target)
		}
		return append(accounts[:idx], accounts[idx+1:]...), nil
	})
	if err != nil {
		if domain.IsBusinessError(err) {
			return err
		}
		return internalError(s.logger, err, "failed to delete account")
	}

	s.audit.Success(ctx, admin, actionDeleteUser, "deleted="+target)
	return nil
}

// ChangePasswordInput contains the data needed to change a password.
type ChangePasswordInput struct {
	Username    string `xml:"username"`
	OldPassword string `xml:"oldPassword"`
	NewPassword string `xml:"newPassword" validate:"required,max=72"`
}

// ChangePassword replaces the password of Username after checking OldPassword.
// The stored value is left untouched when the old password does not match.
func (s *AccountService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	if err := s.validate.Struct(input); err != nil {
		return err
	}
	stored, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return internalError(s.logger, err, "failed to hash password")
	}

	err = s.accounts.Update(ctx, func(accounts []domain.Account) ([]domain.Account, error) {
		idx := indexOfAccount(accounts, input.Username)
		if idx < 0 {
			return nil, domain.NewDomainError(domain.ErrAccountNotFound, "", input.Username)
		}
		if !s.verify(accounts[idx], input.OldPassword) {
			return nil, domain.NewDomainError(domain.ErrIncorrectPassword, "", input.Username)
		}
		accounts[idx].Password = stored
		return accounts, nil
	})
	if err != nil {
		if domain.IsBusinessError(err) {
			s.audit.Failure(ctx, input.Username, actionChangePassword, domain.ResultNone)
			return err
		}
		return internalError(s.logger, err, "failed to change password")
	}

	s.audit.Success(ctx, input.Username, actionChangePassword, domain.ResultNone)
	return nil
}

// Logs returns the server activity log. The read itself is audited first,
// so the returned log includes it.
func (s *AccountService) Logs(ctx context.Context, requester string) ([]domain.LogEntry, error) {
	s.audit.Success(ctx, requester, actionFetchLogs, domain.ResultNone)

	entries, err := s.audit.Entries(ctx)
	if err != nil {
		return nil, internalError(s.logger, err, "failed to read server log")
	}
	return entries, nil
}

// Authorize returns nil if username is an approved ADMIN account and
// ErrAccessDenied otherwise.
func (s *AccountService) Authorize(ctx context.Context, username string) error {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return internalError(s.logger, err, "failed to read accounts")
	}
	idx := indexOfAccount(accounts, username)
	if idx < 0 || accounts[idx].Role != domain.RoleAdmin || !accounts[idx].CanLogin() {
		return domain.NewDomainError(domain.ErrAccessDenied, "", username)
	}
	return nil
}

// EnsureAdmin creates an approved ADMIN account named username unless an
// account with that name already exists. It reports whether one was created.
func (s *AccountService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	stored, err := s.hasher.Hash(password)
	if err != nil {
		return false, internalError(s.logger, err, "failed to hash password")
	}

	created := false
	err = s.accounts.Update(ctx, func(accounts []domain.Account) ([]domain.Account, error) {
		for i := range accounts {
			if accounts[i].SameUsername(username) {
				return accounts, nil
			}
		}
		account := domain.NewAccount(username, stored, domain.RoleAdmin)
		for accountIDTaken(accounts, account.AccountID) {
			account.AccountID = domain.NewAccountID()
		}
		created = true
		return append(accounts, *account), nil
	})
	if err != nil {
		return false, internalError(s.logger, err, "failed to bootstrap admin account")
	}

	if created {
		s.logger.Info().Str("username", username).Msg("bootstrap admin account created")
		s.audit.Success(ctx, domain.SystemUser, actionBootstrapAdmin, "username="+username)
	}
	return created, nil
}

// indexOfAccount finds an account by exact username.
func indexOfAccount(accounts []domain.Account, username string) int {
	for i := range accounts {
		if accounts[i].Username == username {
			return i
		}
	}
	return -1
}

func accountIDTaken(accounts []domain.Account, id string) bool {
	for i := range accounts {
		if accounts[i].AccountID == id {
			return true
		}
	}
	return false
}
