package services

import (
	"context"
	"errors"
	"fmt"

	"feedflow/internal/models"
	"feedflow/internal/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MediaService struct {
	*deps
}

// Attach stores the upload under the post author's media directory and links it
// to the post. The file is discarded if the record cannot be committed.
func (s *MediaService) Attach(ctx context.Context, actorID, postID uint, up storage.Upload, typ models.MediaType, order int) (media *models.PostMedia, err error) {
	const op = "media.attach"
	defer func() { err = s.done(op, err) }()

	if !typ.Valid() {
		return nil, validationError(op, fmt.Sprintf("unknown media type %q", typ))
	}
	if order < 0 {
		return nil, validationError(op, "order must not be negative")
	}

	db := s.db.WithContext(ctx)
	post, err := findPost(db, op, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != actorID {
		return nil, forbiddenError(op, "only the author can attach media")
	}

	staged, err := s.files.Stage(storage.CategoryMedia, post.UserID, up)
	if err != nil {
		return nil, err
	}
	defer func() { _ = staged.Release() }()

	media = &models.PostMedia{PostID: postID, File: staged.Path, Type: typ, Order: order}
	if err := db.Create(media).Error; err != nil {
		return nil, err
	}
	staged.Keep()
	return media, nil
}

// List 按 order、创建时间排序返回帖子的媒体
func (s *MediaService) List(ctx context.Context, postID uint) (media []models.PostMedia, err error) {
	const op = "media.list"
	defer func() { err = s.done(op, err) }()

	db := s.db.WithContext(ctx)
	if _, err := findPost(db, op, postID); err != nil {
		return nil, err
	}
	err = db.Where("post_id = ?", postID).Order(mediaOrder).Find(&media).Error
	return media, err
}

func (s *MediaService) SetOrder(ctx context.Context, actorID, mediaID uint, order int) (media *models.PostMedia, err error) {
	const op = "media.set_order"
	defer func() { err = s.done(op, err) }()

	if order < 0 {
		return nil, validationError(op, "order must not be negative")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		media, err = s.ownedMedia(tx, op, actorID, mediaID)
		if err != nil {
			return err
		}
		if media.Order == order {
			return nil
		}
		if err := tx.Model(media).Update("sort_order", order).Error; err != nil {
			return err
		}
		return tx.First(media, media.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return media, nil
}

func (s *MediaService) Delete(ctx context.Context, actorID, mediaID uint) (err error) {
	const op = "media.delete"
	defer func() { err = s.done(op, err) }()

	var file string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		media, err := s.ownedMedia(tx, op, actorID, mediaID)
		if err != nil {
			return err
		}
		file = media.File
		return tx.Delete(media).Error
	})
	if err != nil {
		return err
	}

	s.removeFiles(op, []string{file})
	s.log.Debug("Media deleted", zap.Uint("media_id", mediaID), zap.String("file", file))
	return nil
}

// ownedMedia loads a media row and checks that actorID wrote its post.
func (s *MediaService) ownedMedia(tx *gorm.DB, op string, actorID, mediaID uint) (*models.PostMedia, error) {
	var media models.PostMedia
	if err := tx.First(&media, mediaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError(op, fmt.Sprintf("media %d does not exist", mediaID))
		}
		return nil, err
	}
	post, err := findPost(tx, op, media.PostID)
	if err != nil {
		return nil, err
	}
	if post.UserID != actorID {
		return nil, forbiddenError(op, "only the author can change this post's media")
	}
	return &media, nil
}
