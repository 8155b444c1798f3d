package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/inkwell/internal/apperr"
	"github.com/yourusername/inkwell/internal/users"
)

// LoadUser はすべてのリクエストの先頭で、セッションからログインユーザーを解決するミドルウェアです。
// 結果は ContextUserKey に保存され、未ログインの場合は何も保存しません。
func (m *Manager) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := m.ResolveUser(c.Request.Context(), sessions.Default(c))
		if err != nil {
			apperr.Respond(c, m.logger, err)
			return
		}
		if user != nil {
			c.Set(ContextUserKey, user)
		}
		c.Next()
	}
}

// CurrentUser は LoadUser が解決したユーザーを返します。
func CurrentUser(c *gin.Context) (*users.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*users.User)
	return user, ok && user != nil
}

// RequireLogin は未ログインのリクエストをログイン画面へリダイレクトするミドルウェアです。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// VerifyCSRF は状態を変更するリクエストの CSRF トークンを検証するミドルウェアです。
// トークンは X-CSRF-Token ヘッダーまたは csrf_token フォーム項目で受け付けます。
// 安全なメソッドではレスポンスヘッダーに現在のトークンを載せます。
func (m *Manager) VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		expected, ok := session.Get(sessionKeyCSRF).(string)

		if isSafeMethod(c.Request.Method) {
			if ok && expected != "" {
				c.Header(csrfHeader, expected)
			}
			c.Next()
			return
		}

		if !ok || expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_MISSING",
				"message": "CSRF token is not set for this session",
			})
			return
		}

		received := c.GetHeader(csrfHeader)
		if received == "" {
			received = c.PostForm(csrfFormField)
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_INVALID",
				"message": "CSRF token does not match",
			})
			return
		}

		c.Next()
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
