// Package serializers converts store records to the API's JSON shapes and
// decodes request bodies into validated write inputs.
package serializers

import (
	"time"

	"feedflow/internal/models"
	"feedflow/internal/utils"
)

type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func NewUser(u models.User) User {
	return User{ID: u.ID, Username: u.Username}
}

// author falls back to the bare id when the association was not preloaded.
func author(id uint, u models.User) User {
	if u.ID == 0 {
		return User{ID: id}
	}
	return NewUser(u)
}

type Profile struct {
	ID     uint    `json:"id"`
	User   uint    `json:"user"`
	Bio    string  `json:"bio"`
	Avatar *string `json:"avatar"`
}

func NewProfile(p models.Profile) Profile {
	return Profile{ID: p.ID, User: p.UserID, Bio: p.Bio, Avatar: p.Avatar}
}

type Follow struct {
	Follower  uint      `json:"follower"`
	Following uint      `json:"following"`
	CreatedAt time.Time `json:"created_at"`
}

func NewFollow(f models.Follow) Follow {
	return Follow{Follower: f.FollowerID, Following: f.FollowingID, CreatedAt: f.CreatedAt}
}

func NewFollows(fs []models.Follow) []Follow {
	out := make([]Follow, len(fs))
	for i, f := range fs {
		out[i] = NewFollow(f)
	}
	return out
}

type Media struct {
	ID        uint             `json:"id"`
	File      string           `json:"file"`
	Type      models.MediaType `json:"type"`
	Order     int              `json:"order"`
	CreatedAt time.Time        `json:"created_at"`
}

func NewMedia(m models.PostMedia) Media {
	return Media{ID: m.ID, File: m.File, Type: m.Type, Order: m.Order, CreatedAt: m.CreatedAt}
}

type Post struct {
	ID          uint      `json:"id"`
	Author      User      `json:"author"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"content_html"`
	IsEdited    bool      `json:"is_edited"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Media       []Media   `json:"media"`
}

func NewPost(p models.Post) Post {
	media := make([]Media, len(p.Media))
	for i, m := range p.Media {
		media[i] = NewMedia(m)
	}
	return Post{
		ID:          p.ID,
		Author:      author(p.UserID, p.User),
		Content:     p.Content,
		ContentHTML: utils.RenderContent(p.Content),
		IsEdited:    p.IsEdited,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Media:       media,
	}
}

func NewPosts(ps []models.Post) []Post {
	out := make([]Post, len(ps))
	for i, p := range ps {
		out[i] = NewPost(p)
	}
	return out
}

type Reaction struct {
	User      uint                `json:"user"`
	Post      uint                `json:"post"`
	Type      models.ReactionType `json:"type"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func NewReaction(r models.Reaction) Reaction {
	return Reaction{User: r.UserID, Post: r.PostID, Type: r.Type, UpdatedAt: r.UpdatedAt}
}

type Comment struct {
	ID          uint      `json:"id"`
	User        User      `json:"user"`
	Post        uint      `json:"post"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"content_html"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewComment(c models.Comment) Comment {
	return Comment{
		ID:          c.ID,
		User:        author(c.UserID, c.User),
		Post:        c.PostID,
		Content:     c.Content,
		ContentHTML: utils.RenderContent(c.Content),
		CreatedAt:   c.CreatedAt,
	}
}

func NewComments(cs []models.Comment) []Comment {
	out := make([]Comment, len(cs))
	for i, c := range cs {
		out[i] = NewComment(c)
	}
	return out
}
