package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/protocol"
	"github.com/prn-tf/freshdeal/internal/service"
)

// AccountHandler serves the account and administration actions.
type AccountHandler struct {
	accounts *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Login handles LOGIN.
func (h *AccountHandler) Login(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if resp := missingField(req, protocol.FieldPassword); resp != nil {
		return resp, nil
	}

	account, err := h.accounts.Login(ctx, service.LoginInput{
		Username: req.Username,
		Password: req.Field(protocol.FieldPassword),
	})
	if err != nil {
		return businessResponse(err)
	}

	return protocol.Success("Login successful.").WithData(&protocol.Data{
		Role:      string(account.Role),
		AccountID: account.AccountID,
	}), nil
}

// Register handles REGISTER.
func (h *AccountHandler) Register(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if resp := missingField(req, protocol.FieldPassword); resp != nil {
		return resp, nil
	}

	account, err := h.accounts.Register(ctx, service.RegisterInput{
		Username: req.Username,
		Password: req.Field(protocol.FieldPassword),
		Role:     req.Field(protocol.FieldRole),
	})
	if err != nil {
		return businessResponse(err)
	}

	msg := "Account created successfully."
	if account.Status == domain.AccountPending {
		msg = "Registration submitted. Awaiting admin approval."
	}
	return protocol.Success(msg), nil
}

// FetchAllUsers handles FETCH_ALL_USERS.
func (h *AccountHandler) FetchAllUsers(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	accounts, err := h.accounts.List(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	return protocol.Success("Users fetched.").WithData(&protocol.Data{
		Users: protocol.NewUserList(accounts),
	}), nil
}

// UpdateUserStatus handles UPDATE_USER_STATUS.
func (h *AccountHandler) UpdateUserStatus(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if resp := missingField(req, protocol.FieldTargetUsername, protocol.FieldNewStatus); resp != nil {
		return resp, nil
	}
	target := req.Field(protocol.FieldTargetUsername)

	account, err := h.accounts.UpdateStatus(ctx, service.UpdateStatusInput{
		Admin:  req.Username,
		Target: target,
		Status: req.Field(protocol.FieldNewStatus),
	})
	if errors.Is(err, domain.ErrAccountNotFound) {
		return protocol.Failed("User not found: " + target), nil
	}
	if err != nil {
		return businessResponse(err)
	}

	return protocol.Success(fmt.Sprintf("User %s status updated to %s", target, account.Status)), nil
}

// DeleteUser handles DELETE_USER.
func (h *AccountHandler) DeleteUser(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if resp := missingField(req, protocol.FieldTargetUsername); resp != nil {
		return resp, nil
	}
	target := req.Field(protocol.FieldTargetUsername)

	err := h.accounts.Delete(ctx, req.Username, target)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return protocol.Failed("User not found: " + target), nil
	}
	if err != nil {
		return businessResponse(err)
	}
	return protocol.Success(fmt.Sprintf("User %s deleted.", target)), nil
}

// ChangePassword handles CHANGE_PASSWORD.
func (h *AccountHandler) ChangePassword(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if resp := missingField(req, protocol.FieldOldPassword, protocol.FieldNewPassword); resp != nil {
		return resp, nil
	}

	err := h.accounts.ChangePassword(ctx, service.ChangePasswordInput{
		Username:    req.Username,
		OldPassword: req.Field(protocol.FieldOldPassword),
		NewPassword: req.Field(protocol.FieldNewPassword),
	})
	if err != nil {
		return businessResponse(err)
	}
	return protocol.Success("Password changed successfully."), nil
}

// FetchLogs handles FETCH_LOGS.
func (h *AccountHandler) FetchLogs(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	entries, err := h.accounts.Logs(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	return protocol.Success("Logs fetched.").WithData(&protocol.Data{
		Logs: &protocol.LogList{Entries: entries},
	}), nil
}
