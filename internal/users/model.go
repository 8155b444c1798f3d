// Package users はユーザー資格情報の永続化を提供します。
package users

// User は user テーブルの1行を表します。
type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
}

// TableName は gorm が使うテーブル名です。
func (User) TableName() string {
	return "user"
}
