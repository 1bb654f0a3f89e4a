package models

import (
	"fmt"
	"time"
)

type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionLaugh ReactionType = "laugh"
	ReactionWow   ReactionType = "wow"
	ReactionAngry ReactionType = "angry"
)

// ReactionTypes lists every reaction in display order.
var ReactionTypes = []ReactionType{ReactionLike, ReactionLove, ReactionLaugh, ReactionWow, ReactionAngry}

func (t ReactionType) Valid() bool {
	for _, rt := range ReactionTypes {
		if t == rt {
			return true
		}
	}
	return false
}

// ParseReactionType 解析表情类型，空字符串视为 like
func ParseReactionType(s string) (ReactionType, error) {
	if s == "" {
		return ReactionLike, nil
	}
	t := ReactionType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown reaction type %q", s)
	}
	return t, nil
}

// Reaction 一个用户对一篇帖子最多一条，改表情是更新而不是新增
type Reaction struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"not null;index;uniqueIndex:idx_reaction_user_post" json:"user_id"`
	User      User         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PostID    uint         `gorm:"not null;index;uniqueIndex:idx_reaction_user_post" json:"post_id"`
	Post      Post         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Type      ReactionType `gorm:"type:varchar(10);not null;default:'like'" json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
