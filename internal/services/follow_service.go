package services

import (
	"context"
	"fmt"

	"feedflow/internal/models"

	"gorm.io/gorm"
)

type FollowService struct {
	*deps
}

// Follow 当前用户关注 targetID；关注自己或重复关注都会失败
func (s *FollowService) Follow(ctx context.Context, actorID, targetID uint) (follow *models.Follow, err error) {
	const op = "follows.create"
	defer func() { err = s.done(op, err) }()

	if actorID == targetID {
		return nil, validationError(op, "users cannot follow themselves")
	}

	db := s.db.WithContext(ctx)
	if err := requireUser(db, op, actorID); err != nil {
		return nil, err
	}
	if err := requireUser(db, op, targetID); err != nil {
		return nil, err
	}

	// The unique index settles races: the losing insert fails with a conflict.
	follow = &models.Follow{FollowerID: actorID, FollowingID: targetID}
	if err := db.Create(follow).Error; err != nil {
		return nil, conflictAs(op, err, fmt.Sprintf("user %d already follows user %d", actorID, targetID))
	}
	return follow, nil
}

func (s *FollowService) Unfollow(ctx context.Context, actorID, targetID uint) (err error) {
	const op = "follows.delete"
	defer func() { err = s.done(op, err) }()

	res := s.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", actorID, targetID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFoundError(op, fmt.Sprintf("user %d does not follow user %d", actorID, targetID))
	}
	return nil
}

// Followers returns the edges pointing at userID, newest first.
func (s *FollowService) Followers(ctx context.Context, userID uint) (follows []models.Follow, err error) {
	const op = "follows.followers"
	defer func() { err = s.done(op, err) }()

	err = s.edges(ctx, "following_id = ?", userID).Preload("Follower").Find(&follows).Error
	return follows, err
}

// Following returns the edges starting at userID, newest first.
func (s *FollowService) Following(ctx context.Context, userID uint) (follows []models.Follow, err error) {
	const op = "follows.following"
	defer func() { err = s.done(op, err) }()

	err = s.edges(ctx, "follower_id = ?", userID).Preload("Following").Find(&follows).Error
	return follows, err
}

func (s *FollowService) edges(ctx context.Context, query string, userID uint) *gorm.DB {
	return s.db.WithContext(ctx).
		Where(query, userID).
		Order("created_at DESC, id DESC")
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followingID uint) (ok bool, err error) {
	const op = "follows.exists"
	defer func() { err = s.done(op, err) }()

	var count int64
	err = s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}
