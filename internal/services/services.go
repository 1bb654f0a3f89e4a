package services

import (
	"errors"
	"fmt"
	"strings"

	"feedflow/internal/metrics"
	"feedflow/internal/models"
	"feedflow/internal/storage"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Options struct {
	BcryptCost int              // 0 means bcrypt.DefaultCost
	Metrics    *metrics.Metrics // optional
}

// Services groups the stores. Each operation runs in its own short transaction.
type Services struct {
	Users     *UserService
	Follows   *FollowService
	Posts     *PostService
	Media     *MediaService
	Reactions *ReactionService
	Comments  *CommentService
}

func New(db *gorm.DB, files *storage.Store, log *zap.Logger, opts Options) *Services {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	d := &deps{
		db:         db,
		files:      files,
		log:        log,
		metrics:    opts.Metrics,
		bcryptCost: cost,
	}
	return &Services{
		Users:     &UserService{d},
		Follows:   &FollowService{d},
		Posts:     &PostService{d},
		Media:     &MediaService{d},
		Reactions: &ReactionService{d},
		Comments:  &CommentService{d},
	}
}

type deps struct {
	db         *gorm.DB
	files      *storage.Store
	log        *zap.Logger
	metrics    *metrics.Metrics
	bcryptCost int
}

// done classifies err and records the outcome of op.
func (d *deps) done(op string, err error) error {
	if err == nil {
		d.metrics.Observe(op, "ok")
		return nil
	}
	err = classify(op, err)
	d.metrics.Observe(op, KindOf(err).String())
	return err
}

// removeFiles deletes files whose records are already gone. Failures only leave
// orphans on disk, so they are logged, not returned.
func (d *deps) removeFiles(op string, paths []string) {
	for _, p := range paths {
		if err := d.files.Remove(p); err != nil {
			d.log.Warn("failed to remove file", zap.String("op", op), zap.String("path", p), zap.Error(err))
		}
	}
}

func requireUser(tx *gorm.DB, op string, id uint) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFoundError(op, fmt.Sprintf("user %d does not exist", id))
	}
	return nil
}

func findPost(tx *gorm.DB, op string, id uint) (*models.Post, error) {
	var post models.Post
	if err := tx.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError(op, fmt.Sprintf("post %d does not exist", id))
		}
		return nil, err
	}
	return &post, nil
}

// requireText rejects blank required text fields.
func requireText(op, field, s string) error {
	if strings.TrimSpace(s) == "" {
		return validationError(op, field+" must not be empty")
	}
	return nil
}
