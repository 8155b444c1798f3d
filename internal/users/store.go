package users

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yourusername/inkwell/internal/apperr"
)

// Store はユーザーを保存・検索します。
type Store struct {
	db   *gorm.DB
	cost int
}

// NewStore は Store を作成します。cost は bcrypt のコストです。
func NewStore(db *gorm.DB, cost int) *Store {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Store{
		db:   db,
		cost: cost,
	}
}

// Register は新しいユーザーを登録し、採番された ID を返します。
func (s *Store) Register(ctx context.Context, username, password string) (int64, error) {
	if username == "" {
		return 0, apperr.Validation("Username is required.")
	}
	if password == "" {
		return 0, apperr.Validation("Password is required.")
	}

	existing, err := s.FindByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, duplicateUser(username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return 0, apperr.Validation("Password is too long.")
		}
		return 0, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// 事前チェックと INSERT の間に同名ユーザーが作られた場合
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, duplicateUser(username)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return user.ID, nil
}

// FindByUsername はユーザー名が完全一致するユーザーを返します。存在しない場合は nil を返します。
func (s *Store) FindByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	return found(&user, err)
}

// FindByID は ID でユーザーを返します。存在しない場合は nil を返します。
func (s *Store) FindByID(ctx context.Context, id int64) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Take(&user, id).Error
	return found(&user, err)
}

// CheckPassword は平文パスワードが保存済みハッシュと一致するかを返します。
func (s *Store) CheckPassword(user *User, password string) bool {
	if user == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

func found(user *User, err error) (*User, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func duplicateUser(username string) error {
	return apperr.DuplicateUser(fmt.Sprintf("User %s is already registered.", username))
}
