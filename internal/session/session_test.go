package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chris-regnier/daybook/internal/auth"
	"github.com/chris-regnier/daybook/internal/config"
	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/storage"
)

func localOpener(t *testing.T, dir string) Opener {
	t.Helper()
	cfg := &config.Config{Storage: "local", DataDir: dir}
	return NewOpener(cfg, zap.NewNop().Sugar())
}

func TestStartLoadsAndClosePersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Start(ctx, localOpener(t, dir), Options{})
	require.NoError(t, err)
	assert.True(t, s.Journal.Loaded())
	assert.False(t, s.Live())

	_, err = s.Journal.Upsert(ctx, entry.Entry{ID: "hike0001", Title: "Hike"})
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx), "second close is a no-op")

	again, err := Start(ctx, localOpener(t, dir), Options{})
	require.NoError(t, err)
	defer again.Close(ctx)
	got, ok := again.Journal.Get("hike0001")
	require.True(t, ok)
	assert.Equal(t, "Hike", got.Title)
}

func TestLiveSessionSeesOtherWriters(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	reader, err := Start(ctx, localOpener(t, dir), Options{Live: true})
	require.NoError(t, err)
	defer reader.Close(ctx)
	require.True(t, reader.Live())

	writer, err := Start(ctx, localOpener(t, dir), Options{})
	require.NoError(t, err)
	_, err = writer.Journal.Upsert(ctx, entry.Entry{ID: "rain0001", Title: "Rain"})
	require.NoError(t, err)
	require.NoError(t, writer.Close(ctx))

	assert.Eventually(t, func() bool {
		_, ok := reader.Journal.Get("rain0001")
		return ok
	}, 5*time.Second, 20*time.Millisecond)
}

func TestOpenerErrors(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop().Sugar()

	_, err := NewOpener(&config.Config{Storage: "floppy"}, log)(ctx, nil)
	assert.ErrorContains(t, err, "unknown storage backend")

	_, err = NewOpener(&config.Config{Storage: "firestore"}, log)(ctx, nil)
	assert.ErrorIs(t, err, storage.ErrUnauthenticated)

	_, err = Start(ctx, NewOpener(&config.Config{Storage: "firestore"}, log), Options{})
	assert.True(t, errors.Is(err, storage.ErrUnauthenticated))
}

type okProvider struct{}

func (okProvider) SignIn(ctx context.Context, email, password string) (auth.Session, error) {
	return auth.Session{User: auth.User{UID: "u-" + email, Email: email}}, nil
}

func (okProvider) SignUp(ctx context.Context, email, password string) (auth.Session, error) {
	return okProvider{}.SignIn(ctx, email, password)
}

func (okProvider) SignInWithCredential(ctx context.Context, cred auth.Credential) (auth.Session, error) {
	return auth.Session{User: auth.User{UID: "fed"}}, nil
}

func TestBindFollowsAuthState(t *testing.T) {
	ctx := context.Background()
	client := auth.New(okProvider{}, zap.NewNop().Sugar())

	var changes []*Session
	m, detach := Bind(client, localOpener(t, t.TempDir()), false, nil, func(s *Session) {
		changes = append(changes, s)
	})
	defer detach()

	require.Len(t, changes, 1)
	assert.Nil(t, changes[0], "signed out: no session")
	assert.Nil(t, m.Current())

	require.True(t, client.SignIn(ctx, "ann@example.com", "pw").Success)
	require.Len(t, changes, 2)
	sess := m.Current()
	require.NotNil(t, sess)
	assert.Equal(t, "u-ann@example.com", sess.User.UID)

	_, err := sess.Journal.Upsert(ctx, entry.Entry{ID: "note0001"})
	require.NoError(t, err)

	client.SignOut()
	require.Len(t, changes, 3)
	assert.Nil(t, changes[2])
	assert.Nil(t, m.Current())

	_, err = sess.Journal.Upsert(ctx, entry.Entry{ID: "note0002"})
	assert.Error(t, err, "torn-down journal rejects writes")
	require.NoError(t, m.Close(ctx))
}

func TestBindWithSignedOutSession(t *testing.T) {
	ctx := context.Background()
	client := auth.New(okProvider{}, zap.NewNop().Sugar())

	m, detach := Bind(client, localOpener(t, t.TempDir()), false, nil, nil, WithSignedOutSession())
	defer detach()

	anon := m.Current()
	require.NotNil(t, anon, "local diary opens without a user")
	assert.Nil(t, anon.User)

	require.True(t, client.SignIn(ctx, "ann@example.com", "pw").Success)
	signedIn := m.Current()
	require.NotNil(t, signedIn)
	assert.NotSame(t, anon, signedIn)

	client.SignOut()
	require.NotNil(t, m.Current())
	assert.Nil(t, m.Current().User)
	require.NoError(t, m.Close(ctx))
}
