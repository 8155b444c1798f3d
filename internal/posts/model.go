// Package posts は投稿の保存と HTTP ハンドラーを提供します。
package posts

import (
	"time"

	"github.com/yourusername/inkwell/internal/users"
)

// Post は post テーブルの1行を表します。Author は読み取り時の JOIN 用です。
type Post struct {
	ID       int64      `gorm:"primaryKey;autoIncrement"`
	Title    string     `gorm:"not null"`
	Body     string     `gorm:"not null"`
	Created  time.Time  `gorm:"not null;index"`
	AuthorID int64      `gorm:"not null;index"`
	Author   users.User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

// TableName は gorm が使うテーブル名です。
func (Post) TableName() string {
	return "post"
}

// Entry は投稿と投稿者名をまとめた読み取り用の値です。
type Entry struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Created  time.Time `json:"created"`
	AuthorID int64     `json:"authorId"`
	Username string    `json:"username"`
}

func toEntry(p *Post) Entry {
	return Entry{
		ID:       p.ID,
		Title:    p.Title,
		Body:     p.Body,
		Created:  p.Created,
		AuthorID: p.AuthorID,
		Username: p.Author.Username,
	}
}
