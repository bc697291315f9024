package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/freshdeal/internal/domain"
)

type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) List(ctx context.Context) ([]domain.LogEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LogEntry), args.Error(1)
}

func (m *MockAuditLogRepository) Append(ctx context.Context, entry domain.LogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func TestLogger_Record(t *testing.T) {
	repo := new(MockAuditLogRepository)
	repo.On("Append", mock.Anything, mock.MatchedBy(func(e domain.LogEntry) bool {
		return e.User == "alice" && e.Action == "BUY_PRODUCT" &&
			e.DataAffected == "PRD-1" && e.Result == domain.ResultSuccess &&
			!e.Timestamp.IsZero()
	})).Return(nil).Once()

	l := New(repo, Config{}, zerolog.Nop())
	l.Success(context.Background(), "alice", "BUY_PRODUCT", "PRD-1")

	repo.AssertExpectations(t)
}

func TestLogger_AppendFailureIsSwallowed(t *testing.T) {
	repo := new(MockAuditLogRepository)
	repo.On("Append", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	l := New(repo, Config{}, zerolog.Nop())
	assert.NotPanics(t, func() {
		l.Failure(context.Background(), "bob", "LOGIN", "bob")
	})
	repo.AssertNumberOfCalls(t, "Append", 1)
}

func TestLogger_RecordsAfterCancel(t *testing.T) {
	repo := new(MockAuditLogRepository)
	repo.On("Append", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), mock.Anything).Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	New(repo, Config{}, zerolog.Nop()).ServerShutdown(ctx)
	repo.AssertExpectations(t)
}

func TestLogger_ConnectionEvents(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		calls   int
	}{
		{name: "enabled", enabled: true, calls: 2},
		{name: "disabled", enabled: false, calls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockAuditLogRepository)
			repo.On("Append", mock.Anything, mock.Anything).Return(nil)

			l := New(repo, Config{AuditConnections: tt.enabled}, zerolog.Nop())
			l.ClientConnect(context.Background(), "127.0.0.1:5555")
			l.ClientDisconnect(context.Background(), "127.0.0.1:5555")

			repo.AssertNumberOfCalls(t, "Append", tt.calls)
		})
	}
}

func TestLogger_ServerStartAndEntries(t *testing.T) {
	repo := new(MockAuditLogRepository)
	var recorded []domain.LogEntry
	repo.On("Append", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		recorded = append(recorded, args.Get(1).(domain.LogEntry))
	}).Return(nil)

	l := New(repo, Config{}, zerolog.Nop())
	l.ServerStart(context.Background(), 5000)
	l.Error(context.Background(), "carol", errors.New("boom"))

	require.Len(t, recorded, 2)
	assert.Equal(t, domain.SystemUser, recorded[0].User)
	assert.Equal(t, domain.ActionServerStart, recorded[0].Action)
	assert.Equal(t, "port=5000", recorded[0].DataAffected)
	assert.Equal(t, domain.ActionError, recorded[1].Action)
	assert.Equal(t, "boom", recorded[1].DataAffected)

	repo.On("List", mock.Anything).Return(recorded, nil)
	entries, err := l.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
