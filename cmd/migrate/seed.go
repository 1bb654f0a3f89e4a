package main

import (
	"context"

	"feedflow/internal/models"
	"feedflow/internal/services"

	"go.uber.org/zap"
)

const demoPassword = "feedflow-demo"

// seedDemo fills an empty database with a small graph. Re-running it leaves
// existing rows alone.
func seedDemo(ctx context.Context, svc *services.Services, log *zap.Logger) error {
	alice, err := ensureUser(ctx, svc, "alice", "Alice")
	if err != nil {
		return err
	}
	bob, err := ensureUser(ctx, svc, "bob", "Bob")
	if err != nil {
		return err
	}

	_, err = svc.Users.CreateProfile(ctx, alice.ID, services.ProfileInput{Bio: "Writes about **Go** and databases."})
	if err := ignoreConflict(err); err != nil {
		return err
	}
	_, err = svc.Follows.Follow(ctx, bob.ID, alice.ID)
	if err := ignoreConflict(err); err != nil {
		return err
	}

	posts, err := svc.Posts.ListByAuthor(ctx, alice.ID)
	if err != nil {
		return err
	}
	var post *models.Post
	if len(posts) > 0 {
		post = &posts[0]
	} else if post, err = svc.Posts.Create(ctx, alice.ID, "Hello, feed! Markdown *works* here."); err != nil {
		return err
	}

	if _, err := svc.Reactions.React(ctx, bob.ID, post.ID, models.ReactionLove); err != nil {
		return err
	}

	comments, err := svc.Comments.ListByPost(ctx, post.ID)
	if err != nil {
		return err
	}
	if len(comments) == 0 {
		if _, err := svc.Comments.Create(ctx, bob.ID, post.ID, "Welcome aboard!"); err != nil {
			return err
		}
	}

	log.Info("Demo data ready",
		zap.Uint("alice_id", alice.ID),
		zap.Uint("bob_id", bob.ID),
		zap.Uint("post_id", post.ID))
	return nil
}

func ensureUser(ctx context.Context, svc *services.Services, username, firstName string) (*models.User, error) {
	u, err := svc.Users.Register(ctx, services.RegisterInput{
		Username:  username,
		Email:     username + "@example.com",
		Password:  demoPassword,
		FirstName: firstName,
	})
	if services.KindOf(err) == services.KindConflict {
		return svc.Users.GetByUsername(ctx, username)
	}
	return u, err
}

func ignoreConflict(err error) error {
	if services.KindOf(err) == services.KindConflict {
		return nil
	}
	return err
}
