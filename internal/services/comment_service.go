package services

import (
	"context"
	"errors"
	"fmt"

	"feedflow/internal/models"

	"gorm.io/gorm"
)

type CommentService struct {
	*deps
}

func (s *CommentService) Create(ctx context.Context, userID, postID uint, content string) (comment *models.Comment, err error) {
	const op = "comments.create"
	defer func() { err = s.done(op, err) }()

	if err := requireText(op, "content", content); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := requireUser(db, op, userID); err != nil {
		return nil, err
	}
	if _, err := findPost(db, op, postID); err != nil {
		return nil, err
	}

	comment = &models.Comment{UserID: userID, PostID: postID, Content: content}
	if err := db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// ListByPost returns a post's comments oldest first.
func (s *CommentService) ListByPost(ctx context.Context, postID uint) (comments []models.Comment, err error) {
	const op = "comments.list"
	defer func() { err = s.done(op, err) }()

	db := s.db.WithContext(ctx)
	if _, err := findPost(db, op, postID); err != nil {
		return nil, err
	}
	err = db.Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

// Delete 评论作者或帖子作者可以删除评论
func (s *CommentService) Delete(ctx context.Context, actorID, commentID uint) (err error) {
	const op = "comments.delete"
	defer func() { err = s.done(op, err) }()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError(op, fmt.Sprintf("comment %d does not exist", commentID))
			}
			return err
		}
		if comment.UserID != actorID {
			post, err := findPost(tx, op, comment.PostID)
			if err != nil {
				return err
			}
			if post.UserID != actorID {
				return forbiddenError(op, "only the comment or post author can delete this comment")
			}
		}
		return tx.Delete(&comment).Error
	})
}
