package posts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/inkwell/internal/apperr"
)

// Repository は投稿の CRUD を提供します。
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository は Repository を作成します。
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// ListAll はすべての投稿を作成日時の新しい順に返します。同時刻の場合は ID の大きい順です。
func (r *Repository) ListAll(ctx context.Context) ([]Entry, error) {
	var rows []Post
	err := r.db.WithContext(ctx).
		Joins("Author").
		Order(clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: "created"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}, Desc: true}).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for i := range rows {
		entries = append(entries, toEntry(&rows[i]))
	}
	return entries, nil
}

// Get は ID で投稿を返します。
func (r *Repository) Get(ctx context.Context, id int64) (*Entry, error) {
	var row Post
	err := r.db.WithContext(ctx).Joins("Author").Take(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("Post id %d doesn't exist.", id))
		}
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	entry := toEntry(&row)
	return &entry, nil
}

// GetForAuthor は Get に加えて、投稿者が userID であることを確認します。
func (r *Repository) GetForAuthor(ctx context.Context, id, userID int64) (*Entry, error) {
	entry, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.AuthorID != userID {
		return nil, apperr.Forbidden("You are not the author of this post.")
	}
	return entry, nil
}

// Create は投稿を作成し、採番された ID を返します。
func (r *Repository) Create(ctx context.Context, title, body string, authorID int64) (int64, error) {
	if title == "" {
		return 0, apperr.Validation("Title is required.")
	}
	row := Post{
		Title:    title,
		Body:     body,
		Created:  r.now(),
		AuthorID: authorID,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}
	return row.ID, nil
}

// Update はタイトルと本文だけを上書きします。投稿者と作成日時は変わりません。
// 更新時のメッセージは作成時と異なり末尾のピリオドを付けません。
func (r *Repository) Update(ctx context.Context, id int64, title, body string) error {
	if title == "" {
		return apperr.Validation("Title is required")
	}
	result := r.db.WithContext(ctx).
		Model(&Post{ID: id}).
		Updates(map[string]any{"title": title, "body": body})
	if result.Error != nil {
		return fmt.Errorf("update post %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound(fmt.Sprintf("Post id %d doesn't exist.", id))
	}
	return nil
}

// Delete は投稿を削除します。
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&Post{}, id).Error; err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	return nil
}
