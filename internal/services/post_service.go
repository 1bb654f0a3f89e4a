package services

import (
	"context"

	"feedflow/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PostService struct {
	*deps
}

const mediaOrder = "sort_order ASC, created_at ASC, id ASC"

func (s *PostService) Create(ctx context.Context, authorID uint, content string) (post *models.Post, err error) {
	const op = "posts.create"
	defer func() { err = s.done(op, err) }()

	if err := requireText(op, "content", content); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := requireUser(db, op, authorID); err != nil {
		return nil, err
	}

	post = &models.Post{UserID: authorID, Content: content}
	if err := db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// Get loads a post with its author and media in display order.
func (s *PostService) Get(ctx context.Context, id uint) (post *models.Post, err error) {
	const op = "posts.get"
	defer func() { err = s.done(op, err) }()

	return findPostDetail(s.db.WithContext(ctx), id)
}

func findPostDetail(db *gorm.DB, id uint) (*models.Post, error) {
	var post models.Post
	err := db.Preload("User").
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order(mediaOrder)
		}).
		First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List 按发布时间倒序返回全部帖子
func (s *PostService) List(ctx context.Context) (posts []models.Post, err error) {
	const op = "posts.list"
	defer func() { err = s.done(op, err) }()

	err = s.listQuery(ctx).Find(&posts).Error
	return posts, err
}

func (s *PostService) ListByAuthor(ctx context.Context, authorID uint) (posts []models.Post, err error) {
	const op = "posts.list_by_author"
	defer func() { err = s.done(op, err) }()

	err = s.listQuery(ctx).Where("user_id = ?", authorID).Find(&posts).Error
	return posts, err
}

func (s *PostService) listQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("User").
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order(mediaOrder)
		}).
		Order("created_at DESC, id DESC")
}

// Update replaces the content of a post. Only the author may edit; the first
// real change flips is_edited, which is never reset.
func (s *PostService) Update(ctx context.Context, actorID, postID uint, content string) (post *models.Post, err error) {
	const op = "posts.update"
	defer func() { err = s.done(op, err) }()

	if err := requireText(op, "content", content); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findPost(tx, op, postID)
		if err != nil {
			return err
		}
		if current.UserID != actorID {
			return forbiddenError(op, "only the author can edit this post")
		}
		if current.Content == content {
			return nil
		}
		return tx.Model(current).Updates(map[string]interface{}{
			"content":   content,
			"is_edited": true,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return findPostDetail(s.db.WithContext(ctx), postID)
}

// Delete 删除帖子及其媒体、表情、评论，媒体文件在提交后删除
func (s *PostService) Delete(ctx context.Context, actorID, postID uint) (err error) {
	const op = "posts.delete"
	defer func() { err = s.done(op, err) }()

	var files []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := findPost(tx, op, postID)
		if err != nil {
			return err
		}
		if post.UserID != actorID {
			return forbiddenError(op, "only the author can delete this post")
		}
		files, err = deletePosts(tx, op, []uint{postID})
		return err
	})
	if err != nil {
		return err
	}

	s.removeFiles(op, files)
	s.log.Info("Post deleted", zap.Uint("post_id", postID), zap.Uint("actor_id", actorID), zap.Int("files", len(files)))
	return nil
}

// deletePosts removes posts and their dependents inside tx, children first.
// It returns the media files that belonged to them.
func deletePosts(tx *gorm.DB, op string, postIDs []uint) ([]string, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}

	if err := deleteWhere(tx, op, "reactions", &models.Reaction{}, "post_id IN ?", postIDs); err != nil {
		return nil, err
	}
	if err := deleteWhere(tx, op, "comments", &models.Comment{}, "post_id IN ?", postIDs); err != nil {
		return nil, err
	}

	var files []string
	if err := tx.Model(&models.PostMedia{}).Where("post_id IN ?", postIDs).Pluck("file", &files).Error; err != nil {
		return nil, cascadeError(op, "media", err)
	}
	if err := deleteWhere(tx, op, "media", &models.PostMedia{}, "post_id IN ?", postIDs); err != nil {
		return nil, err
	}
	if err := deleteWhere(tx, op, "posts", &models.Post{}, "id IN ?", postIDs); err != nil {
		return nil, err
	}
	return files, nil
}
