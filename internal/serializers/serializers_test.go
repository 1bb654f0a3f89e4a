package serializers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"feedflow/internal/models"
	"feedflow/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFollowCreate(t *testing.T) {
	in, err := DecodeFollowCreate([]byte(`{"following": 7}`))
	require.NoError(t, err)
	assert.Equal(t, uint(7), in.Following)

	tests := map[string]string{
		"explicit follower": `{"follower": 1, "following": 7}`,
		"missing target":    `{}`,
		"zero target":       `{"following": 0}`,
		"wrong type":        `{"following": "seven"}`,
		"not an object":     `[7]`,
		"not json":          `following=7`,
		"null":              `null`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeFollowCreate([]byte(body))
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}
}

func TestDecodeRejectsIdentityKeys(t *testing.T) {
	_, err := DecodeProfileWrite([]byte(`{"user": 2, "bio": "hi"}`))
	require.ErrorIs(t, err, services.ErrValidation)
	assert.Contains(t, err.Error(), `"user"`)

	_, err = DecodePostWrite([]byte(`{"author": 2, "content": "hi"}`))
	assert.ErrorIs(t, err, services.ErrValidation)
	_, err = DecodeReactionWrite([]byte(`{"user": 2, "type": "love"}`))
	assert.ErrorIs(t, err, services.ErrValidation)
	_, err = DecodeCommentWrite([]byte(`{"user": 2, "content": "hi"}`))
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestDecodeWrites(t *testing.T) {
	p, err := DecodeProfileWrite([]byte(`{"bio": "gopher"}`))
	require.NoError(t, err)
	require.NotNil(t, p.Bio)
	assert.Equal(t, "gopher", *p.Bio)

	p, err = DecodeProfileWrite([]byte(`{}`))
	require.NoError(t, err)
	assert.Nil(t, p.Bio)

	_, err = DecodeProfileWrite([]byte(`{"bio": "` + strings.Repeat("b", 501) + `"}`))
	require.ErrorIs(t, err, services.ErrValidation)
	assert.Contains(t, err.Error(), "bio must be at most 500 characters")

	post, err := DecodePostWrite([]byte(`{"content": "hello"}`))
	require.NoError(t, err)
	assert.Equal(t, "hello", post.Content)

	_, err = DecodePostWrite([]byte(`{"content": ""}`))
	require.ErrorIs(t, err, services.ErrValidation)
	assert.Contains(t, err.Error(), "content is required")

	c, err := DecodeCommentWrite([]byte(`{"content": "nice"}`))
	require.NoError(t, err)
	assert.Equal(t, "nice", c.Content)
}

func TestDecodeReactionWrite(t *testing.T) {
	r, err := DecodeReactionWrite([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, models.ReactionLike, r.Type)

	r, err = DecodeReactionWrite([]byte(`{"type": "wow"}`))
	require.NoError(t, err)
	assert.Equal(t, models.ReactionWow, r.Type)

	_, err = DecodeReactionWrite([]byte(`{"type": "meh"}`))
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestNewProblem(t *testing.T) {
	tests := []struct {
		kind   services.Kind
		status int
		code   string
	}{
		{services.KindValidation, http.StatusBadRequest, "validation"},
		{services.KindForbidden, http.StatusForbidden, "forbidden"},
		{services.KindNotFound, http.StatusNotFound, "not_found"},
		{services.KindConflict, http.StatusConflict, "conflict"},
		{services.KindCascade, http.StatusInternalServerError, "cascade_failure"},
		{services.KindInternal, http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			p := NewProblem(services.NewError(tt.kind, "test.op", "details here", errors.New("cause")))
			assert.Equal(t, tt.status, p.Status)
			assert.Equal(t, tt.code, p.Code)
		})
	}

	p := NewProblem(services.NewError(services.KindConflict, "follows.create", "user 1 already follows user 2", nil))
	assert.Equal(t, "user 1 already follows user 2", p.Detail)

	p = NewProblem(services.NewError(services.KindCascade, "users.delete", "failed to delete follows", errors.New("pq: deadlock")))
	assert.Equal(t, "Internal Server Error", p.Detail)

	p = NewProblem(errors.New("boom"))
	assert.Equal(t, Problem{Status: 500, Code: "internal", Detail: "Internal Server Error"}, p)
}

func TestPostJSON(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	post := models.Post{
		ID:        3,
		UserID:    1,
		User:      models.User{ID: 1, Username: "alice", Password: "secret-hash"},
		Content:   "*hi*",
		IsEdited:  true,
		CreatedAt: created,
		UpdatedAt: created.Add(time.Minute),
		Media: []models.PostMedia{
			{ID: 9, PostID: 3, File: "media/users/1/a.jpg", Type: models.MediaImage, Order: 1, CreatedAt: created},
		},
	}

	data, err := json.Marshal(NewPost(post))
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]interface{}{"id": 1.0, "username": "alice"}, got["author"])
	assert.Equal(t, "<p><em>hi</em></p>", got["content_html"])
	assert.Equal(t, true, got["is_edited"])
	assert.NotContains(t, string(data), "secret-hash")

	media := got["media"].([]interface{})
	require.Len(t, media, 1)
	assert.Equal(t, map[string]interface{}{
		"id": 9.0, "file": "media/users/1/a.jpg", "type": "image", "order": 1.0, "created_at": "2024-03-01T12:00:00Z",
	}, media[0])
}

func TestAuthorFallsBackToID(t *testing.T) {
	c := NewComment(models.Comment{ID: 1, UserID: 4, PostID: 2, Content: "ok"})
	assert.Equal(t, User{ID: 4}, c.User)

	posts := NewPosts([]models.Post{{ID: 1, UserID: 5}})
	assert.Equal(t, uint(5), posts[0].Author.ID)
	assert.NotNil(t, posts[0].Media)
}

func TestFollowAndProfileJSON(t *testing.T) {
	avatar := "avatars/users/1/x.png"
	data, err := json.Marshal(NewProfile(models.Profile{ID: 2, UserID: 1, Bio: "hey", Avatar: &avatar}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":2,"user":1,"bio":"hey","avatar":"avatars/users/1/x.png"}`, string(data))

	data, err = json.Marshal(NewFollows([]models.Follow{{FollowerID: 1, FollowingID: 2, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"follower":1,"following":2,"created_at":"2024-01-01T00:00:00Z"}]`, string(data))

	r := NewReaction(models.Reaction{UserID: 1, PostID: 2, Type: models.ReactionAngry})
	assert.Equal(t, models.ReactionAngry, r.Type)
}
