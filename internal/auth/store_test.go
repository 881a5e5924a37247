package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/company-intel/internal/domain"
	"github.com/cuongbtq/company-intel/internal/storage/memory"
)

var testConfig = Config{
	ClientID:     "client",
	ClientSecret: "secret",
	TokenTTL:     24 * time.Hour,
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) (*Store, *FixedClock) {
	t.Helper()
	clock := &FixedClock{T: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewStore(memory.NewStore().Tokens(), testConfig, clock, discardLogger()), clock
}

func TestIssue(t *testing.T) {
	tests := []struct {
		name         string
		clientID     string
		clientSecret string
		wantErr      error
	}{
		{name: "valid credentials", clientID: "client", clientSecret: "secret"},
		{name: "wrong secret", clientID: "client", clientSecret: "nope", wantErr: domain.ErrInvalidCredentials},
		{name: "wrong client", clientID: "other", clientSecret: "secret", wantErr: domain.ErrInvalidCredentials},
		{name: "empty", wantErr: domain.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, clock := newTestStore(t)

			issued, err := store.Issue(context.Background(), tt.clientID, tt.clientSecret)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, issued)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, issued.AccessToken)
			assert.Equal(t, "bearer", issued.TokenType)
			assert.Equal(t, int64(86400), issued.ExpiresIn)
			assert.Equal(t, clock.Now().Add(24*time.Hour), issued.ExpiresAt)
		})
	}
}

func TestIssue_UniqueTokens(t *testing.T) {
	store, _ := newTestStore(t)

	first, err := store.Issue(context.Background(), "client", "secret")
	require.NoError(t, err)
	second, err := store.Issue(context.Background(), "client", "secret")
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
}

func TestValidate_RoundTripAndExpiry(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	issued, err := store.Issue(ctx, "client", "secret")
	require.NoError(t, err)

	ok, err := store.Validate(ctx, issued.AccessToken)
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(24*time.Hour - time.Second)
	ok, err = store.Validate(ctx, issued.AccessToken)
	require.NoError(t, err)
	assert.True(t, ok)

	// valid iff now < expires_at
	clock.Advance(time.Second)
	ok, err = store.Validate(ctx, issued.AccessToken)
	require.NoError(t, err)
	assert.False(t, ok)

	// deleted on the failed attempt, never resurrected
	clock.T = clock.T.Add(-48 * time.Hour)
	ok, err = store.Validate(ctx, issued.AccessToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidate_UnknownToken(t *testing.T) {
	store, _ := newTestStore(t)

	ok, err := store.Validate(context.Background(), "never-issued")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Validate(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSweepExpired(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	old, err := store.Issue(ctx, "client", "secret")
	require.NoError(t, err)

	clock.Advance(12 * time.Hour)
	fresh, err := store.Issue(ctx, "client", "secret")
	require.NoError(t, err)

	clock.Advance(12*time.Hour + time.Second)
	deleted, err := store.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	ok, err := store.Validate(ctx, fresh.AccessToken)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Validate(ctx, old.AccessToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

type mockTokenRepo struct {
	mock.Mock
}

func (m *mockTokenRepo) CreateToken(ctx context.Context, token *domain.AccessToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockTokenRepo) GetToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	args := m.Called(ctx, token)
	if t, ok := args.Get(0).(*domain.AccessToken); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTokenRepo) DeleteToken(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockTokenRepo) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func TestIssue_RetriesOnceOnConflict(t *testing.T) {
	repo := new(mockTokenRepo)
	repo.On("CreateToken", mock.Anything, mock.Anything).Return(domain.ErrTokenConflict).Once()
	repo.On("CreateToken", mock.Anything, mock.Anything).Return(nil).Once()

	store := NewStore(repo, testConfig, nil, discardLogger())
	issued, err := store.Issue(context.Background(), "client", "secret")

	require.NoError(t, err)
	assert.NotEmpty(t, issued.AccessToken)
	repo.AssertNumberOfCalls(t, "CreateToken", 2)
}

func TestIssue_GivesUpAfterRepeatedConflicts(t *testing.T) {
	repo := new(mockTokenRepo)
	repo.On("CreateToken", mock.Anything, mock.Anything).Return(domain.ErrTokenConflict)

	store := NewStore(repo, testConfig, nil, discardLogger())
	_, err := store.Issue(context.Background(), "client", "secret")

	assert.ErrorIs(t, err, domain.ErrTokenConflict)
	repo.AssertNumberOfCalls(t, "CreateToken", issueAttempts)
}

func TestValidate_RepositoryFailure(t *testing.T) {
	repo := new(mockTokenRepo)
	repo.On("GetToken", mock.Anything, "tok").Return(nil, errors.New("connection refused"))

	store := NewStore(repo, testConfig, nil, discardLogger())
	ok, err := store.Validate(context.Background(), "tok")

	assert.False(t, ok)
	assert.Error(t, err)
}

func TestRunSweeperStopsOnCancel(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- store.RunSweeper(ctx, time.Millisecond) }()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
