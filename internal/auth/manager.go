// Package auth は認証・認可機能を提供します。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"

	"github.com/gin-contrib/sessions"

	"github.com/yourusername/inkwell/internal/apperr"
	"github.com/yourusername/inkwell/internal/users"
)

const (
	sessionKeyUserID = "user_id"
	sessionKeyCSRF   = "csrf_token"

	csrfHeader    = "X-CSRF-Token"
	csrfFormField = "csrf_token"

	// LoginPath は未ログイン時のリダイレクト先です。
	LoginPath = "/auth/login"
	// IndexPath はログイン・ログアウト後のリダイレクト先です。
	IndexPath = "/"
)

// ContextUserKey は、ハンドラー間でログイン済みユーザーを共有するためのキーです。
const ContextUserKey = "auth.user"

// UserStore は認証に必要なユーザー操作です。
type UserStore interface {
	Register(ctx context.Context, username, password string) (int64, error)
	FindByUsername(ctx context.Context, username string) (*users.User, error)
	FindByID(ctx context.Context, id int64) (*users.User, error)
	CheckPassword(user *users.User, password string) bool
}

// Manager は認証処理をまとめた構造体です。
type Manager struct {
	users  UserStore
	logger *log.Logger
}

// NewManager は認証マネージャーを作成します。
func NewManager(store UserStore, logger *log.Logger) *Manager {
	return &Manager{
		users:  store,
		logger: logger,
	}
}

// Authenticate はユーザー名とパスワードを検証します。
// ユーザー名の誤りとパスワードの誤りは別のメッセージになります。
func (m *Manager) Authenticate(ctx context.Context, username, password string) (*users.User, error) {
	user, err := m.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Authentication("Incorrect username")
	}
	if !m.users.CheckPassword(user, password) {
		return nil, apperr.Authentication("Incorrect password")
	}
	return user, nil
}

// Establish は既存のセッション内容を破棄し、user に紐づく新しいセッションを保存します。
// 戻り値は CSRF トークンです。
func (m *Manager) Establish(session sessions.Session, user *users.User) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	session.Clear()
	session.Set(sessionKeyUserID, user.ID)
	session.Set(sessionKeyCSRF, token)
	if err := session.Save(); err != nil {
		return "", err
	}
	return token, nil
}

// Terminate はセッションを無条件に破棄します。何度呼んでも同じ結果になります。
func (m *Manager) Terminate(session sessions.Session) error {
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}

// ResolveUser はセッションに保存された ID からユーザーを毎回読み直します。
// ID が無い、またはユーザーが存在しない場合は nil を返します。
func (m *Manager) ResolveUser(ctx context.Context, session sessions.Session) (*users.User, error) {
	id, ok := readUserID(session.Get(sessionKeyUserID))
	if !ok {
		return nil, nil
	}
	return m.users.FindByID(ctx, id)
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func readUserID(v interface{}) (int64, bool) {
	switch id := v.(type) {
	case int64:
		return id, id > 0
	case int:
		return int64(id), id > 0
	case float64:
		return int64(id), id > 0
	default:
		return 0, false
	}
}
