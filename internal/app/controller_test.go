package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/khrees2412/devapply/internal/api"
	"github.com/khrees2412/devapply/internal/database"
	"github.com/khrees2412/devapply/internal/forms"
	"github.com/khrees2412/devapply/internal/session"
	"github.com/khrees2412/devapply/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func storedKeys(t *testing.T, db *sql.DB) map[string]string {
	t.Helper()
	st := database.NewStorage(db)
	out := map[string]string{}
	for _, key := range session.Keys {
		v, ok, err := st.GetItem(context.Background(), key)
		require.NoError(t, err)
		if ok {
			out[key] = v
		}
	}
	return out
}

var ann = models.AuthResult{AccessToken: "t", UserID: 1, Name: "Ann"}

func TestScreenString(t *testing.T) {
	tests := []struct {
		screen   Screen
		expected string
		valid    bool
	}{
		{ScreenLogin, "login", true},
		{ScreenRegister, "register", true},
		{ScreenUpload, "upload", true},
		{ScreenDashboard, "dashboard", true},
		{Screen(4), "unknown", false},
		{Screen(-1), "unknown", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.screen.String())
		assert.Equal(t, tt.valid, tt.screen.Valid())
	}
}

func TestStartWithoutSession(t *testing.T) {
	c := NewController(session.NewStore(createTestDB(t)), nil)

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, ScreenLogin, c.Screen())
	assert.Nil(t, c.Session())
}

func TestRegisterGoesToUploadAndPersists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/register" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"t","user_id":1,"name":"Ann"}`))
	}))
	defer srv.Close()

	db := createTestDB(t)
	c := NewController(session.NewStore(db), nil)
	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.ShowRegister())

	form := forms.NewRegisterForm(api.New(srv.URL, srv.Client(), nil, nil), c)
	form.Set(forms.FieldName, "Ann")
	form.Set(forms.FieldEmail, "ann@example.com")
	form.Set(forms.FieldPassword, "secret1")
	form.Set(forms.FieldConfirmPassword, "secret1")
	require.NoError(t, form.Submit(context.Background()))

	assert.Equal(t, ScreenUpload, c.Screen())
	assert.Equal(t, map[string]string{"access_token": "t", "user_id": "1", "user_name": "Ann"}, storedKeys(t, db))
	assert.Equal(t, &models.Session{Credential: "t", UserID: 1, DisplayName: "Ann"}, c.Session())
}

func TestLoginGoesToDashboard(t *testing.T) {
	db := createTestDB(t)
	c := NewController(session.NewStore(db), nil)

	require.NoError(t, c.LoginSucceeded(context.Background(), ann))
	assert.Equal(t, ScreenDashboard, c.Screen())
	assert.Len(t, storedKeys(t, db), 3)
}

func TestUploadCompleted(t *testing.T) {
	c := NewController(session.NewStore(createTestDB(t)), nil)
	ctx := context.Background()

	assert.ErrorIs(t, c.UploadCompleted(ctx), ErrNotAuthenticated)

	require.NoError(t, c.RegisterSucceeded(ctx, ann))
	require.NoError(t, c.UploadCompleted(ctx))
	assert.Equal(t, ScreenDashboard, c.Screen())

	assert.ErrorIs(t, c.UploadCompleted(ctx), ErrInvalidScreen)
}

func TestLogoutIsIdempotent(t *testing.T) {
	db := createTestDB(t)
	c := NewController(session.NewStore(db), nil)
	ctx := context.Background()
	require.NoError(t, c.LoginSucceeded(ctx, ann))

	for i := 0; i < 2; i++ {
		require.NoError(t, c.Logout(ctx))
		assert.Equal(t, ScreenLogin, c.Screen())
		assert.Nil(t, c.Session())
		assert.Empty(t, storedKeys(t, db))
	}
}

func TestRestartRestoresSessionWithoutNetwork(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devapply.db")
	ctx := context.Background()

	db, err := database.Open(path)
	require.NoError(t, err)
	first := NewController(session.NewStore(db), nil)
	require.NoError(t, first.LoginSucceeded(ctx, ann))
	require.NoError(t, db.Close())

	db, err = database.Open(path)
	require.NoError(t, err)
	defer db.Close()
	second := NewController(session.NewStore(db), nil)
	require.NoError(t, second.Start(ctx))

	assert.Equal(t, ScreenDashboard, second.Screen())
	assert.Equal(t, first.Session(), second.Session())
}

func TestFormSwitching(t *testing.T) {
	c := NewController(session.NewStore(createTestDB(t)), nil)

	require.NoError(t, c.ShowRegister())
	assert.Equal(t, ScreenRegister, c.Screen())
	assert.ErrorIs(t, c.ShowRegister(), ErrInvalidScreen)

	require.NoError(t, c.ShowLogin())
	assert.Equal(t, ScreenLogin, c.Screen())
	assert.ErrorIs(t, c.ShowLogin(), ErrInvalidScreen)
}

type brokenStore struct{ err error }

func (b brokenStore) Load(context.Context) (*models.Session, error) { return nil, b.err }
func (b brokenStore) Save(context.Context, *models.Session) error   { return b.err }
func (b brokenStore) Clear(context.Context) error                   { return b.err }

func TestStorageFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	c := NewController(brokenStore{err: boom}, nil)

	assert.ErrorIs(t, c.Start(ctx), boom)

	err := c.LoginSucceeded(ctx, ann)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, ScreenLogin, c.Screen(), "screen only changes after the session is stored")
	assert.Nil(t, c.Session())

	assert.ErrorIs(t, c.Logout(ctx), boom)
	assert.Equal(t, ScreenLogin, c.Screen())
}
