// Package sessionstore は設定に応じたセッションストアを作成します。
package sessionstore

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/inkwell/internal/config"
)

// CookieName はセッションクッキーの名前です。
const CookieName = "inkwell_session"

// New は cfg.SessionBackend に応じたストアを返します。
// redis バックエンドの場合は接続を確認し、閉じるための関数も返します。
func New(ctx context.Context, cfg *config.Config) (sessions.Store, func() error, error) {
	var (
		store   sessions.Store
		closeFn = func() error { return nil }
	)

	switch cfg.SessionBackend {
	case config.SessionBackendCookie:
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	case config.SessionBackendRedis:
		opt, err := redis.ParseURL(cfg.SessionRedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		ttl := time.Duration(cfg.SessionTTLMinutes) * time.Minute
		if ttl <= 0 {
			ttl = 12 * time.Hour
		}
		store = NewRedisStore(rdb, ttl, []byte(cfg.SessionSecret))
		closeFn = rdb.Close
	default:
		return nil, nil, fmt.Errorf("unsupported session backend %q", cfg.SessionBackend)
	}

	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	return store, closeFn, nil
}
