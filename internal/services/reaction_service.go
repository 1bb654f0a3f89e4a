package services

import (
	"context"
	"fmt"

	"feedflow/internal/models"

	"gorm.io/gorm"
)

// reactAttempts bounds the update/insert loop; one lost insert race is expected
// at most, since the winner's row is then visible to the retried update.
const reactAttempts = 3

type ReactionService struct {
	*deps
}

// React sets the user's reaction on a post, replacing any previous type.
// There is at most one row per (user, post); the unique index guards concurrent callers.
func (s *ReactionService) React(ctx context.Context, userID, postID uint, typ models.ReactionType) (reaction *models.Reaction, err error) {
	const op = "reactions.upsert"
	defer func() { err = s.done(op, err) }()

	if !typ.Valid() {
		return nil, validationError(op, fmt.Sprintf("unknown reaction type %q", typ))
	}

	db := s.db.WithContext(ctx)
	if err := requireUser(db, op, userID); err != nil {
		return nil, err
	}
	if _, err := findPost(db, op, postID); err != nil {
		return nil, err
	}

	for i := 0; i < reactAttempts; i++ {
		res := db.Model(&models.Reaction{}).
			Where("user_id = ? AND post_id = ?", userID, postID).
			Update("type", typ)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			return s.find(db, userID, postID)
		}

		reaction = &models.Reaction{UserID: userID, PostID: postID, Type: typ}
		err := db.Create(reaction).Error
		if err == nil {
			return reaction, nil
		}
		if KindOf(classify(op, err)) != KindConflict {
			return nil, err
		}
		// 并发插入失败，改为更新对方已写入的记录
	}
	return nil, NewError(KindConflict, op, "reaction kept changing concurrently", nil)
}

func (s *ReactionService) find(db *gorm.DB, userID, postID uint) (*models.Reaction, error) {
	var reaction models.Reaction
	if err := db.Where("user_id = ? AND post_id = ?", userID, postID).First(&reaction).Error; err != nil {
		return nil, err
	}
	return &reaction, nil
}

// Unreact removes the user's reaction; it does nothing if there is none.
func (s *ReactionService) Unreact(ctx context.Context, userID, postID uint) (err error) {
	const op = "reactions.delete"
	defer func() { err = s.done(op, err) }()

	return s.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Reaction{}).Error
}

func (s *ReactionService) Get(ctx context.Context, userID, postID uint) (reaction *models.Reaction, err error) {
	const op = "reactions.get"
	defer func() { err = s.done(op, err) }()

	return s.find(s.db.WithContext(ctx), userID, postID)
}

// Summary 统计帖子每种表情的数量，没有的类型计为 0
func (s *ReactionService) Summary(ctx context.Context, postID uint) (counts map[models.ReactionType]int64, err error) {
	const op = "reactions.summary"
	defer func() { err = s.done(op, err) }()

	db := s.db.WithContext(ctx)
	if _, err := findPost(db, op, postID); err != nil {
		return nil, err
	}

	var rows []struct {
		Type  models.ReactionType
		Count int64
	}
	err = db.Model(&models.Reaction{}).
		Select("type, COUNT(*) AS count").
		Where("post_id = ?", postID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts = make(map[models.ReactionType]int64, len(models.ReactionTypes))
	for _, t := range models.ReactionTypes {
		counts[t] = 0
	}
	for _, r := range rows {
		counts[r.Type] = r.Count
	}
	return counts, nil
}
