package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jakechorley/vaccine-scheduler/internal/config"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/apperr"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/model"
	"github.com/jakechorley/vaccine-scheduler/pkg/credentials"
	"github.com/jakechorley/vaccine-scheduler/pkg/db"
	"github.com/jakechorley/vaccine-scheduler/pkg/sqlite"
)

var testParams = credentials.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newTestService(t *testing.T, limiter *rate.Limiter) *Service {
	t.Helper()
	d, err := sqlite.New(context.Background(), ":memory:", time.Second)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return NewService(d, credentials.NewHasher(testParams), limiter, time.Second, zap.NewNop())
}

func TestRegister_AndLogin(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, model.KindPatient, "alice", "pw1"))
	require.NoError(t, svc.Register(ctx, model.KindCaregiver, "bob", "pw2"))

	sess := New()
	principal, err := svc.Login(ctx, sess, model.KindPatient, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, &model.Principal{Kind: model.KindPatient, Username: "alice"}, principal)
	assert.True(t, sess.Current().IsPatient())
	assert.False(t, sess.Current().IsCaregiver())
}

func TestRegister_UsernameTakenPerKind(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, model.KindPatient, "alice", "pw1"))

	err := svc.Register(ctx, model.KindPatient, "alice", "other")
	assert.ErrorIs(t, err, apperr.ErrUsernameTaken)

	// the caregiver namespace is separate
	assert.NoError(t, svc.Register(ctx, model.KindCaregiver, "alice", "pw1"))
}

func TestRegister_InvalidInput(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		kind     model.AccountKind
		username string
		password string
	}{
		{name: "empty username", kind: model.KindPatient, username: "", password: "pw"},
		{name: "empty password", kind: model.KindPatient, username: "alice", password: ""},
		{name: "unknown kind", kind: model.AccountKind("admin"), username: "alice", password: "pw"},
		{name: "username too long", kind: model.KindPatient, username: strings.Repeat("a", 256), password: "pw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Register(ctx, tt.kind, tt.username, tt.password)
			assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestLogin_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, model.KindPatient, "alice", "pw1"))

	sess := New()

	_, wrongPassword := svc.Login(ctx, sess, model.KindPatient, "alice", "nope")
	_, unknownUser := svc.Login(ctx, sess, model.KindPatient, "mallory", "pw1")
	_, wrongKind := svc.Login(ctx, sess, model.KindCaregiver, "alice", "pw1")

	for _, err := range []error{wrongPassword, unknownUser, wrongKind} {
		assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
		assert.Equal(t, apperr.ErrInvalidCredentials.Error(), err.Error())
	}
	assert.Nil(t, sess.Current())
}

// countingHasher counts key derivations so tests can compare login paths
type countingHasher struct {
	*credentials.Hasher
	derivations int
}

func (c *countingHasher) Verify(password string, salt, hash []byte) bool {
	c.derivations++
	return c.Hasher.Verify(password, salt, hash)
}

func (c *countingHasher) VerifyMissing(password string) bool {
	c.derivations++
	return c.Hasher.VerifyMissing(password)
}

func TestLogin_UnknownAccountCostsOneDerivation(t *testing.T) {
	d, err := sqlite.New(context.Background(), ":memory:", time.Second)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	hasher := &countingHasher{Hasher: credentials.NewHasher(testParams)}
	svc := NewService(d, hasher, nil, time.Second, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, model.KindPatient, "alice", "pw1"))

	_, err = svc.Login(ctx, New(), model.KindPatient, "alice", "nope")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	assert.Equal(t, 1, hasher.derivations)

	_, err = svc.Login(ctx, New(), model.KindPatient, "mallory", "nope")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	assert.Equal(t, 2, hasher.derivations)
}

func TestLogin_AlreadyLoggedInLeavesSessionUnchanged(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, model.KindPatient, "alice", "pw1"))
	require.NoError(t, svc.Register(ctx, model.KindCaregiver, "bob", "pw2"))

	sess := New()
	_, err := svc.Login(ctx, sess, model.KindPatient, "alice", "pw1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, sess, model.KindCaregiver, "bob", "pw2")
	assert.ErrorIs(t, err, apperr.ErrAlreadyLoggedIn)
	assert.Equal(t, &model.Principal{Kind: model.KindPatient, Username: "alice"}, sess.Current())
}

func TestLogout(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, model.KindCaregiver, "bob", "pw2"))

	sess := New()
	assert.ErrorIs(t, svc.Logout(sess), apperr.ErrNotLoggedIn)

	_, err := svc.Login(ctx, sess, model.KindCaregiver, "bob", "pw2")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(sess))
	assert.Nil(t, sess.Current())
	assert.ErrorIs(t, svc.Logout(sess), apperr.ErrNotLoggedIn)

	// a logged-out session can log in as the other kind
	require.NoError(t, svc.Register(ctx, model.KindPatient, "alice", "pw1"))
	_, err = svc.Login(ctx, sess, model.KindPatient, "alice", "pw1")
	assert.NoError(t, err)
}

func TestSession_CurrentReturnsCopy(t *testing.T) {
	sess := &Session{principal: &model.Principal{Kind: model.KindPatient, Username: "alice"}}

	p := sess.Current()
	p.Username = "mallory"

	assert.Equal(t, "alice", sess.Current().Username)
}

func TestSessions_AreIndependent(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, model.KindPatient, "alice", "pw1"))
	require.NoError(t, svc.Register(ctx, model.KindCaregiver, "bob", "pw2"))

	first, second := New(), New()
	_, err := svc.Login(ctx, first, model.KindPatient, "alice", "pw1")
	require.NoError(t, err)
	_, err = svc.Login(ctx, second, model.KindCaregiver, "bob", "pw2")
	require.NoError(t, err)

	assert.True(t, first.Current().IsPatient())
	assert.True(t, second.Current().IsCaregiver())
}

func TestLogin_Throttled(t *testing.T) {
	limiter := NewLimiter(config.AuthConfig{LoginAttemptsPerMinute: 1, LoginBurst: 2})
	svc := newTestService(t, limiter)
	ctx := context.Background()
	sess := New()

	for i := 0; i < 2; i++ {
		_, err := svc.Login(ctx, sess, model.KindPatient, "alice", "wrong")
		assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	}

	_, err := svc.Login(ctx, sess, model.KindPatient, "alice", "wrong")
	assert.ErrorIs(t, err, apperr.ErrTooManyAttempts)
}

type brokenDB struct{}

func (brokenDB) RunInTx(ctx context.Context, fn func(tx db.Tx) error) error {
	return errors.New("database is locked")
}

func (brokenDB) Close() {}

func TestLogin_StorageFailure(t *testing.T) {
	svc := NewService(brokenDB{}, credentials.NewHasher(testParams), nil, time.Second, zap.NewNop())

	_, err := svc.Login(context.Background(), New(), model.KindPatient, "alice", "pw1")
	assert.ErrorIs(t, err, apperr.ErrStorageFailure)

	err = svc.Register(context.Background(), model.KindPatient, "alice", "pw1")
	assert.ErrorIs(t, err, apperr.ErrStorageFailure)
}
