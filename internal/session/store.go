// Package session persists the authenticated session in local storage so that
// a restart reconstructs it without logging in again. There is no expiry or
// refresh: whatever is stored is trusted until the backend rejects it.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/khrees2412/devapply/internal/database"
	"github.com/khrees2412/devapply/pkg/models"
)

// Local storage keys, shared with the web frontend.
const (
	KeyAccessToken = "access_token"
	KeyUserID      = "user_id"
	KeyUserName    = "user_name"
)

// Keys lists every key the session occupies
var Keys = []string{KeyAccessToken, KeyUserID, KeyUserName}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) storage() *database.Storage {
	return database.NewStorage(s.db)
}

// Load reconstructs the session from storage. It returns nil when no
// credential or user id is stored, or when the stored user id is not a number.
func (s *Store) Load(ctx context.Context) (*models.Session, error) {
	st := s.storage()

	token, ok, err := st.GetItem(ctx, KeyAccessToken)
	if err != nil || !ok || token == "" {
		return nil, err
	}
	rawID, ok, err := st.GetItem(ctx, KeyUserID)
	if err != nil || !ok || rawID == "" {
		return nil, err
	}
	userID, err := strconv.Atoi(rawID)
	if err != nil {
		return nil, nil
	}
	name, _, err := st.GetItem(ctx, KeyUserName)
	if err != nil {
		return nil, err
	}

	return &models.Session{
		Credential:  token,
		UserID:      userID,
		DisplayName: name,
	}, nil
}

// Save writes the three session keys in a single transaction
func (s *Store) Save(ctx context.Context, sess *models.Session) error {
	if sess == nil {
		return fmt.Errorf("save session: nil session")
	}
	return database.WithTx(ctx, s.db, func(ctx context.Context, tx database.DBTX) error {
		st := database.NewStorage(tx)
		if err := st.SetItem(ctx, KeyAccessToken, sess.Credential); err != nil {
			return err
		}
		if err := st.SetItem(ctx, KeyUserID, strconv.Itoa(sess.UserID)); err != nil {
			return err
		}
		return st.SetItem(ctx, KeyUserName, sess.DisplayName)
	})
}

// Clear removes the session keys. Safe to call when nothing is stored.
func (s *Store) Clear(ctx context.Context) error {
	return database.WithTx(ctx, s.db, func(ctx context.Context, tx database.DBTX) error {
		st := database.NewStorage(tx)
		for _, key := range Keys {
			if err := st.RemoveItem(ctx, key); err != nil {
				return err
			}
		}
		return nil
	})
}

// Token returns the stored credential, or "" when there is none.
// It satisfies api.TokenSource.
func (s *Store) Token(ctx context.Context) (string, error) {
	token, _, err := s.storage().GetItem(ctx, KeyAccessToken)
	return token, err
}
