package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSessionManager(rdb, "kgomo_session", "test-secret", time.Hour, false), mr
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestSessionRoundTrip(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("42")
	sess.AddFlash(FlashMessage{Kind: "success", Message: "Welcome"})

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, nil, sess))
	cookie := sessionCookie(t, rec, "kgomo_session")

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookie)
	restored, err := sm.Load(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, "42", restored.User())

	flash := restored.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Welcome", flash.Message)
	assert.Nil(t, restored.PopFlash(), "flash shows once")
}

func TestSessionRejectsForgedCookie(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("42")
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, nil, sess))

	forged := httptest.NewRequest(http.MethodGet, "/", nil)
	forged.AddCookie(&http.Cookie{Name: "kgomo_session", Value: sess.ID + ".bogus-signature"})
	fresh, err := sm.Load(ctx, forged)
	require.NoError(t, err)
	assert.Empty(t, fresh.User(), "tampered cookie starts a fresh session")
	assert.NotEqual(t, sess.ID, fresh.ID)
}

func TestSessionRenewDropsOldEntry(t *testing.T) {
	sm, mr := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("cart", "3")
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), nil, sess))

	oldID := sess.ID
	require.NoError(t, sm.Renew(ctx, sess))
	assert.NotEqual(t, oldID, sess.ID)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), nil, sess))

	assert.False(t, mr.Exists("kgomo:sess:"+oldID))
	assert.True(t, mr.Exists("kgomo:sess:"+sess.ID))
	assert.Equal(t, "3", sess.Get("cart"), "values survive renewal")
}

func TestSessionDestroyClearsCookieAndStore(t *testing.T) {
	sm, mr := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), nil, sess))
	require.True(t, mr.Exists("kgomo:sess:"+sess.ID))

	sm.Destroy(sess)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, nil, sess))
	assert.False(t, mr.Exists("kgomo:sess:"+sess.ID))
	assert.Equal(t, -1, sessionCookie(t, rec, "kgomo_session").MaxAge)
}

func TestCSRFRotateIssuesFreshToken(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	cm := NewCSRFManager("csrf-secret")
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	first, err := cm.EnsureToken(ctx, sess)
	require.NoError(t, err)
	again, err := cm.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, first, again, "token is stable until rotated")
	require.NoError(t, cm.VerifyToken(ctx, sess, first))

	rotated, err := cm.Rotate(ctx, sess)
	require.NoError(t, err)
	assert.NotEqual(t, first, rotated)
	assert.ErrorIs(t, cm.VerifyToken(ctx, sess, first), ErrCSRFTokenMismatch)
	require.NoError(t, cm.VerifyToken(ctx, sess, rotated))
}
