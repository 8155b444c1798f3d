package posts

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/inkwell/internal/apperr"
	"github.com/yourusername/inkwell/internal/users"
)

// Service はハンドラーが利用する投稿操作です。
type Service interface {
	ListAll(ctx context.Context) ([]Entry, error)
	GetForAuthor(ctx context.Context, id, userID int64) (*Entry, error)
	Create(ctx context.Context, title, body string, authorID int64) (int64, error)
	Update(ctx context.Context, id int64, title, body string) error
	Delete(ctx context.Context, id int64) error
}

// CurrentUserFunc はリクエストに紐づくログインユーザーを返します。
type CurrentUserFunc func(c *gin.Context) (*users.User, bool)

// Handler は投稿関連のエンドポイントをまとめます。
type Handler struct {
	svc         Service
	currentUser CurrentUserFunc
	logger      *log.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(svc Service, currentUser CurrentUserFunc, logger *log.Logger) *Handler {
	return &Handler{
		svc:         svc,
		currentUser: currentUser,
		logger:      logger,
	}
}

type postForm struct {
	Title string `form:"title" json:"title"`
	Body  string `form:"body" json:"body"`
}

// Index は GET / のハンドラーです。
func (h *Handler) Index(c *gin.Context) {
	entries, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": entries})
}

// CreateForm は GET /create のハンドラーです。
func (h *Handler) CreateForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"form":   "create",
		"fields": []string{"title", "body"},
	})
}

// Create は POST /create のハンドラーです。
func (h *Handler) Create(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		apperr.Respond(c, h.logger, fmt.Errorf("create post: no current user"))
		return
	}

	var form postForm
	if err := c.ShouldBind(&form); err != nil {
		apperr.Respond(c, h.logger, apperr.MalformedBody())
		return
	}

	id, err := h.svc.Create(c.Request.Context(), form.Title, form.Body, user.ID)
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	c.Header("X-Post-Id", strconv.FormatInt(id, 10))
	c.Redirect(http.StatusFound, "/")
}

// UpdateForm は GET /:id/update のハンドラーです。
func (h *Handler) UpdateForm(c *gin.Context) {
	entry, ok := h.loadOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"form": "update",
		"post": entry,
	})
}

// Update は POST /:id/update のハンドラーです。
func (h *Handler) Update(c *gin.Context) {
	entry, ok := h.loadOwned(c)
	if !ok {
		return
	}

	var form postForm
	if err := c.ShouldBind(&form); err != nil {
		apperr.Respond(c, h.logger, apperr.MalformedBody())
		return
	}

	if err := h.svc.Update(c.Request.Context(), entry.ID, form.Title, form.Body); err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// Delete は POST /:id/delete のハンドラーです。
func (h *Handler) Delete(c *gin.Context) {
	entry, ok := h.loadOwned(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), entry.ID); err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// loadOwned はパスの投稿を読み込み、ログインユーザーが投稿者か確認します。
// 失敗時はレスポンスを書き込んで false を返します。
func (h *Handler) loadOwned(c *gin.Context) (*Entry, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apperr.Respond(c, h.logger, apperr.NotFound(fmt.Sprintf("Post id %s doesn't exist.", c.Param("id"))))
		return nil, false
	}

	user, ok := h.currentUser(c)
	if !ok {
		apperr.Respond(c, h.logger, fmt.Errorf("post %d: no current user", id))
		return nil, false
	}

	entry, err := h.svc.GetForAuthor(c.Request.Context(), id, user.ID)
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return nil, false
	}
	return entry, true
}
