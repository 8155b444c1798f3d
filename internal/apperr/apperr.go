// Package apperr はアプリケーション共通のエラー分類と HTTP レスポンスへの変換を提供します。
package apperr

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// エラーの種別。errors.Is で判定します。
var (
	ErrValidation     = errors.New("validation failed")
	ErrDuplicateUser  = errors.New("user already registered")
	ErrAuthentication = errors.New("authentication failed")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
)

// Error はクライアントに返すメッセージ付きのエラーです。
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Validation は必須項目の欠落などの入力エラーを作成します。
func Validation(message string) *Error {
	return &Error{Kind: ErrValidation, Code: "INVALID_INPUT", Message: message}
}

// MalformedBodyMessage はリクエスト本文を解釈できなかった場合のメッセージです。
const MalformedBodyMessage = "Request body must be form fields or JSON."

// MalformedBody は本文のバインドに失敗した場合の入力エラーを作成します。
// どの項目が欠けているかは分からないため、項目名を含めません。
func MalformedBody() *Error {
	return Validation(MalformedBodyMessage)
}

// DuplicateUser はユーザー名の重複エラーを作成します。
func DuplicateUser(message string) *Error {
	return &Error{Kind: ErrDuplicateUser, Code: "USER_EXISTS", Message: message}
}

// Authentication はログイン失敗のエラーを作成します。
func Authentication(message string) *Error {
	return &Error{Kind: ErrAuthentication, Code: "INVALID_CREDENTIALS", Message: message}
}

// NotFound は対象が存在しない場合のエラーを作成します。
func NotFound(message string) *Error {
	return &Error{Kind: ErrNotFound, Code: "NOT_FOUND", Message: message}
}

// Forbidden は権限がない場合のエラーを作成します。
func Forbidden(message string) *Error {
	return &Error{Kind: ErrForbidden, Code: "FORBIDDEN", Message: message}
}

// Status はエラー種別に対応する HTTP ステータスを返します。
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicateUser):
		return http.StatusConflict
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Respond はエラーを {code, message} 形式の JSON で返し、以降のハンドラーを中断します。
// 分類されていないエラーはログに残し、内容はクライアントに見せません。
func Respond(c *gin.Context, logger *log.Logger, err error) {
	var appErr *Error
	switch {
	case errors.As(err, &appErr):
		c.AbortWithStatusJSON(Status(appErr), gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		})
	case errors.Is(err, context.Canceled):
		c.AbortWithStatusJSON(http.StatusRequestTimeout, gin.H{
			"code":    "REQUEST_CANCELED",
			"message": "request was canceled",
		})
	default:
		if logger != nil {
			logger.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "internal server error",
		})
	}
}
