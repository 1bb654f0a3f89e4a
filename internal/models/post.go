package models

import (
	"fmt"
	"time"
)

type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"` // author
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsEdited  bool      `gorm:"not null;default:false" json:"is_edited"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Media []PostMedia `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"media"`
}

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

func (t MediaType) Valid() bool {
	switch t {
	case MediaImage, MediaVideo:
		return true
	}
	return false
}

func ParseMediaType(s string) (MediaType, error) {
	t := MediaType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown media type %q", s)
	}
	return t, nil
}

// PostMedia 帖子附带的图片/视频，按 Order 排序展示
type PostMedia struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index:idx_post_media_sort,priority:1" json:"post_id"`
	File      string    `gorm:"size:255;not null" json:"file"`
	Type      MediaType `gorm:"type:varchar(10);not null" json:"type"`
	Order     int       `gorm:"column:sort_order;not null;default:0;index:idx_post_media_sort,priority:2" json:"order"`
	CreatedAt time.Time `gorm:"index:idx_post_media_sort,priority:3" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PostMedia) TableName() string {
	return "post_media"
}
