package serializers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"feedflow/internal/models"
	"feedflow/internal/services"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Write bodies never carry the acting user; it comes from the session layer
// and is passed to the services explicitly.

type FollowCreate struct {
	Following uint `json:"following" binding:"required"`
}

type ProfileWrite struct {
	Bio *string `json:"bio" binding:"omitempty,max=500"`
}

type PostWrite struct {
	Content string `json:"content" binding:"required,max=10000"`
}

type ReactionWrite struct {
	Type models.ReactionType `json:"type"`
}

type CommentWrite struct {
	Content string `json:"content" binding:"required,max=2000"`
}

func DecodeFollowCreate(body []byte) (FollowCreate, error) {
	var in FollowCreate
	err := decode("follows.decode", body, &in, "follower")
	return in, err
}

func DecodeProfileWrite(body []byte) (ProfileWrite, error) {
	var in ProfileWrite
	err := decode("profiles.decode", body, &in, "user")
	return in, err
}

func DecodePostWrite(body []byte) (PostWrite, error) {
	var in PostWrite
	err := decode("posts.decode", body, &in, "author", "user")
	return in, err
}

// DecodeReactionWrite defaults a missing type to like.
func DecodeReactionWrite(body []byte) (ReactionWrite, error) {
	const op = "reactions.decode"
	var in ReactionWrite
	if err := decode(op, body, &in, "user"); err != nil {
		return in, err
	}
	t, err := models.ParseReactionType(string(in.Type))
	if err != nil {
		return in, services.NewError(services.KindValidation, op, err.Error(), nil)
	}
	in.Type = t
	return in, nil
}

func DecodeCommentWrite(body []byte) (CommentWrite, error) {
	var in CommentWrite
	err := decode("comments.decode", body, &in, "user")
	return in, err
}

// decode rejects identity keys, then binds and validates body into dst.
func decode(op string, body []byte, dst interface{}, identityKeys ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return services.NewError(services.KindValidation, op, "request body must be a JSON object", err)
	}
	for _, k := range identityKeys {
		if _, ok := fields[k]; ok {
			return services.NewError(services.KindValidation, op, fmt.Sprintf("%q is set from the authenticated user and cannot be supplied", k), nil)
		}
	}

	if err := binding.JSON.BindBody(body, dst); err != nil {
		return services.NewError(services.KindValidation, op, describe(err), err)
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "request body is malformed"
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs[i] = field + " is required"
		case "max":
			msgs[i] = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		default:
			msgs[i] = fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
		}
	}
	return strings.Join(msgs, "; ")
}
