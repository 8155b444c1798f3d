package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/inkwell/internal/apperr"
)

type credentialsForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// RegisterForm は GET /auth/register のハンドラーです。
func (m *Manager) RegisterForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"form":   "register",
		"fields": []string{"username", "password"},
	})
}

// Register は POST /auth/register のハンドラーです。
func (m *Manager) Register(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		apperr.Respond(c, m.logger, apperr.MalformedBody())
		return
	}

	if _, err := m.users.Register(c.Request.Context(), form.Username, form.Password); err != nil {
		apperr.Respond(c, m.logger, err)
		return
	}
	c.Redirect(http.StatusFound, LoginPath)
}

// LoginForm は GET /auth/login のハンドラーです。
func (m *Manager) LoginForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"form":   "login",
		"fields": []string{"username", "password"},
	})
}

// Login は POST /auth/login のハンドラーです。
func (m *Manager) Login(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		apperr.Respond(c, m.logger, apperr.MalformedBody())
		return
	}

	user, err := m.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		apperr.Respond(c, m.logger, err)
		return
	}

	token, err := m.Establish(sessions.Default(c), user)
	if err != nil {
		apperr.Respond(c, m.logger, err)
		return
	}

	c.Header(csrfHeader, token)
	c.Redirect(http.StatusFound, IndexPath)
}

// Logout は GET /auth/logout のハンドラーです。
func (m *Manager) Logout(c *gin.Context) {
	if err := m.Terminate(sessions.Default(c)); err != nil {
		apperr.Respond(c, m.logger, err)
		return
	}
	c.Redirect(http.StatusFound, IndexPath)
}
