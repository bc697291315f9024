// Package audit records significant server events in the durable activity log.
package audit

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/repository"
)

// Logger appends audit entries and mirrors them to the process log.
// A failed append is logged and otherwise ignored: auditing never changes
// the outcome of the request being audited.
type Logger struct {
	repo        repository.AuditLogRepository
	logger      zerolog.Logger
	connections bool
}

// Config contains configuration for the audit logger.
type Config struct {
	// AuditConnections enables CLIENT_CONNECT / CLIENT_DISCONNECT entries.
	AuditConnections bool
}

// New creates a Logger writing to repo.
func New(repo repository.AuditLogRepository, cfg Config, logger zerolog.Logger) *Logger {
	return &Logger{
		repo:        repo,
		logger:      logger.With().Str("component", "audit").Logger(),
		connections: cfg.AuditConnections,
	}
}

// Record appends one entry. A nil Logger records nothing.
func (l *Logger) Record(ctx context.Context, user, action, dataAffected, result string) {
	if l == nil {
		return
	}
	entry := domain.NewLogEntry(user, action, dataAffected, result)

	l.logger.Info().
		Str("user", user).
		Str("action", action).
		Str("data", dataAffected).
		Str("result", result).
		Msg("audit")

	// Entries describing work that already happened must land even if the
	// client went away.
	if err := l.repo.Append(context.WithoutCancel(ctx), *entry); err != nil {
		l.logger.Error().Err(err).Str("action", action).Msg("failed to append audit entry")
	}
}

// Success records a successful action by user.
func (l *Logger) Success(ctx context.Context, user, action, dataAffected string) {
	l.Record(ctx, user, action, dataAffected, domain.ResultSuccess)
}

// Failure records a rejected action by user.
func (l *Logger) Failure(ctx context.Context, user, action, dataAffected string) {
	l.Record(ctx, user, action, dataAffected, domain.ResultFailed)
}

// Error records a system failure while serving user.
func (l *Logger) Error(ctx context.Context, user string, err error) {
	l.Record(ctx, user, domain.ActionError, err.Error(), domain.ResultFailed)
}

// ClientConnect records a new connection from addr.
func (l *Logger) ClientConnect(ctx context.Context, addr string) {
	if l != nil && l.connections {
		l.Record(ctx, addr, domain.ActionClientConnect, domain.ResultNone, domain.ResultNone)
	}
}

// ClientDisconnect records that the connection from addr was closed.
func (l *Logger) ClientDisconnect(ctx context.Context, addr string) {
	if l != nil && l.connections {
		l.Record(ctx, addr, domain.ActionClientDisconnect, domain.ResultNone, domain.ResultNone)
	}
}

// ServerStart records that the server is listening on port.
func (l *Logger) ServerStart(ctx context.Context, port int) {
	l.Record(ctx, domain.SystemUser, domain.ActionServerStart, "port="+strconv.Itoa(port), domain.ResultNone)
}

// ServerShutdown records that the server stopped.
func (l *Logger) ServerShutdown(ctx context.Context) {
	l.Record(ctx, domain.SystemUser, domain.ActionServerShutdown, domain.ResultNone, domain.ResultNone)
}

// Entries returns the full activity log.
func (l *Logger) Entries(ctx context.Context) ([]domain.LogEntry, error) {
	return l.repo.List(ctx)
}
