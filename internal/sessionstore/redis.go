package sessionstore

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	gsessions "github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
)

// RedisStore はセッションの中身を Redis に保存し、クッキーには署名付きのセッションIDだけを載せます。
// 保存とログアウトのたびにサーバー側の古いレコードを削除するため、古いクッキーは再利用できません。
type RedisStore struct {
	rdb     *redis.Client
	ttl     time.Duration
	codecs  []securecookie.Codec
	options *gsessions.Options
}

var _ sessions.Store = (*RedisStore)(nil)

// NewRedisStore は RedisStore を作成します。keyPairs はクッキー署名用の鍵です。
func NewRedisStore(rdb *redis.Client, ttl time.Duration, keyPairs ...[]byte) *RedisStore {
	return &RedisStore{
		rdb:    rdb,
		ttl:    ttl,
		codecs: securecookie.CodecsFromPairs(keyPairs...),
		options: &gsessions.Options{
			Path:     "/",
			HttpOnly: true,
		},
	}
}

// Options はクッキー属性を設定します。
func (s *RedisStore) Options(options sessions.Options) {
	s.options = options.ToGorillaOptions()
}

// Get はリクエスト内でキャッシュされたセッションを返します。
func (s *RedisStore) Get(r *http.Request, name string) (*gsessions.Session, error) {
	return gsessions.GetRegistry(r).Get(s, name)
}

// New はクッキーのセッションIDから Redis 上のセッションを復元します。
// クッキーが無い、または復元できない場合は空の新規セッションを返します。
func (s *RedisStore) New(r *http.Request, name string) (*gsessions.Session, error) {
	session := gsessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, cookie.Value, &session.ID, s.codecs...); err != nil {
		session.ID = ""
		return session, err
	}

	found, err := s.load(r.Context(), session)
	if err != nil {
		return session, err
	}
	if !found {
		// 削除済みのIDは使い回さない
		session.ID = ""
		return session, nil
	}
	session.IsNew = false
	return session, nil
}

// Save はセッションを新しい ID で Redis に書き込み、クッキーを発行します。
// 既存の ID のレコードは削除するため、ログイン前のクッキーはログイン後のセッションを指しません。
// MaxAge が負の場合はレコードを削除してクッキーを失効させます。
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *gsessions.Session) error {
	ctx := r.Context()
	if session.Options != nil && session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.rdb.Del(ctx, sessionKey(session.ID)).Err(); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
		http.SetCookie(w, gsessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	// 書き込みのたびに ID を発行し直し、以前のクッキーを無効にする
	if session.ID != "" {
		if err := s.rdb.Del(ctx, sessionKey(session.ID)).Err(); err != nil {
			return fmt.Errorf("delete previous session: %w", err)
		}
	}
	session.ID = uuid.NewString()
	if err := s.save(ctx, session); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, gsessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func (s *RedisStore) load(ctx context.Context, session *gsessions.Session) (bool, error) {
	data, err := s.rdb.Get(ctx, sessionKey(session.ID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("load session: %w", err)
	}
	values, err := decodeValues(data)
	if err != nil {
		return false, err
	}
	session.Values = values
	return true, nil
}

func (s *RedisStore) save(ctx context.Context, session *gsessions.Session) error {
	data, err := encodeValues(session.Values)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, sessionKey(session.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func encodeValues(values map[interface{}]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(values); err != nil {
		return nil, fmt.Errorf("encode session values: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeValues(data []byte) (map[interface{}]interface{}, error) {
	values := make(map[interface{}]interface{})
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&values); err != nil {
		return nil, fmt.Errorf("decode session values: %w", err)
	}
	return values, nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}
