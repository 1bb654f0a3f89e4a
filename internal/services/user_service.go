package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"feedflow/internal/models"
	"feedflow/internal/storage"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	maxUsernameLen   = 150
	minPasswordLen   = 8
	maxPasswordLen   = 72 // bcrypt ignores anything longer
	conflictUsername = "username %q is already taken"
	conflictProfile  = "user %d already has a profile"
)

var (
	usernameRe = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
	validate   = validator.New()
)

type UserService struct {
	*deps
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register 创建用户，密码使用 bcrypt 存储
func (s *UserService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	const op = "users.register"
	defer func() { err = s.done(op, err) }()

	if err := validateUsername(op, in.Username); err != nil {
		return nil, err
	}
	if in.Email != "" && validate.Var(in.Email, "email") != nil {
		return nil, validationError(op, "email address is invalid")
	}
	if len(in.Password) < minPasswordLen || len(in.Password) > maxPasswordLen {
		return nil, validationError(op, fmt.Sprintf("password must be %d to %d bytes", minPasswordLen, maxPasswordLen))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user = &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  string(hash),
		IsActive:  true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, conflictAs(op, err, fmt.Sprintf(conflictUsername, in.Username))
	}
	return user, nil
}

func validateUsername(op, username string) error {
	if username == "" {
		return validationError(op, "username must not be empty")
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return validationError(op, fmt.Sprintf("username must be at most %d characters", maxUsernameLen))
	}
	if !usernameRe.MatchString(username) {
		return validationError(op, "username may only contain letters, digits and @/./+/-/_")
	}
	return nil
}

func (s *UserService) Get(ctx context.Context, id uint) (user *models.User, err error) {
	const op = "users.get"
	defer func() { err = s.done(op, err) }()

	user = &models.User{}
	if err := s.db.WithContext(ctx).First(user, id).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (user *models.User, err error) {
	const op = "users.get_by_username"
	defer func() { err = s.done(op, err) }()

	user = &models.User{}
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

type ProfileInput struct {
	Bio    string
	Avatar *storage.Upload
}

// CreateProfile creates the actor's profile. A user has at most one.
func (s *UserService) CreateProfile(ctx context.Context, actorID uint, in ProfileInput) (profile *models.Profile, err error) {
	const op = "profiles.create"
	defer func() { err = s.done(op, err) }()

	db := s.db.WithContext(ctx)
	if err := requireUser(db, op, actorID); err != nil {
		return nil, err
	}

	profile = &models.Profile{UserID: actorID, Bio: in.Bio}

	var staged *storage.Staged
	if in.Avatar != nil {
		staged, err = s.files.Stage(storage.CategoryAvatars, actorID, *in.Avatar)
		if err != nil {
			return nil, err
		}
		defer func() { _ = staged.Release() }()
		avatar := staged.Path
		profile.Avatar = &avatar
	}

	if err := db.Create(profile).Error; err != nil {
		return nil, conflictAs(op, err, fmt.Sprintf(conflictProfile, actorID))
	}
	staged.Keep()
	return profile, nil
}

type ProfileUpdate struct {
	Bio          *string         // nil leaves the bio unchanged
	Avatar       *storage.Upload // replaces the current avatar
	RemoveAvatar bool
}

// UpdateProfile 更新当前用户资料；旧头像在提交成功后才删除
func (s *UserService) UpdateProfile(ctx context.Context, actorID uint, in ProfileUpdate) (profile *models.Profile, err error) {
	const op = "profiles.update"
	defer func() { err = s.done(op, err) }()

	if in.Avatar != nil && in.RemoveAvatar {
		return nil, validationError(op, "cannot replace and remove the avatar at once")
	}

	db := s.db.WithContext(ctx)
	profile = &models.Profile{}
	if err := db.Where("user_id = ?", actorID).First(profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError(op, fmt.Sprintf("user %d has no profile", actorID))
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Bio != nil {
		updates["bio"] = *in.Bio
	}

	// gorm writes the new value back into profile.Avatar, so keep a copy
	var staged *storage.Staged
	var oldAvatar string
	if profile.Avatar != nil {
		oldAvatar = *profile.Avatar
	}
	replaced := false
	switch {
	case in.Avatar != nil:
		staged, err = s.files.Stage(storage.CategoryAvatars, actorID, *in.Avatar)
		if err != nil {
			return nil, err
		}
		defer func() { _ = staged.Release() }()
		updates["avatar"] = staged.Path
		replaced = true
	case in.RemoveAvatar && profile.Avatar != nil:
		updates["avatar"] = nil
		replaced = true
	}

	if len(updates) == 0 {
		return profile, nil
	}
	if err := db.Model(profile).Updates(updates).Error; err != nil {
		return nil, err
	}
	staged.Keep()

	if replaced && oldAvatar != "" {
		s.removeFiles(op, []string{oldAvatar})
	}
	if err := db.First(profile, profile.ID).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (profile *models.Profile, err error) {
	const op = "profiles.get"
	defer func() { err = s.done(op, err) }()

	profile = &models.Profile{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// Delete removes a user and everything they own in one transaction:
// their posts (with media, reactions and comments), their own reactions and
// comments, follow edges in both directions, and their profile. Files are
// removed after the commit. Only the user themself or staff may do this.
func (s *UserService) Delete(ctx context.Context, actorID, userID uint) (err error) {
	const op = "users.delete"
	defer func() { err = s.done(op, err) }()

	db := s.db.WithContext(ctx)

	var actor models.User
	if err := db.First(&actor, actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError(op, fmt.Sprintf("user %d does not exist", actorID))
		}
		return err
	}
	if actor.ID != userID && !actor.IsStaff {
		return forbiddenError(op, "only the account owner or staff can delete a user")
	}

	var files []string
	var postCount int
	err = db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}

		var postIDs []uint
		if err := tx.Model(&models.Post{}).Where("user_id = ?", userID).Pluck("id", &postIDs).Error; err != nil {
			return cascadeError(op, "posts", err)
		}
		postCount = len(postIDs)
		mediaFiles, err := deletePosts(tx, op, postIDs)
		if err != nil {
			return err
		}
		files = append(files, mediaFiles...)

		if err := deleteWhere(tx, op, "reactions", &models.Reaction{}, "user_id = ?", userID); err != nil {
			return err
		}
		if err := deleteWhere(tx, op, "comments", &models.Comment{}, "user_id = ?", userID); err != nil {
			return err
		}
		if err := deleteWhere(tx, op, "follows", &models.Follow{}, "follower_id = ? OR following_id = ?", userID, userID); err != nil {
			return err
		}

		var profile models.Profile
		if err := tx.Where("user_id = ?", userID).Limit(1).Find(&profile).Error; err != nil {
			return cascadeError(op, "profile", err)
		}
		if profile.Avatar != nil {
			files = append(files, *profile.Avatar)
		}
		if err := deleteWhere(tx, op, "profile", &models.Profile{}, "user_id = ?", userID); err != nil {
			return err
		}

		if err := tx.Delete(&user).Error; err != nil {
			return cascadeError(op, "user", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.removeFiles(op, files)
	s.log.Info("User deleted",
		zap.Uint("user_id", userID),
		zap.Uint("actor_id", actorID),
		zap.Int("posts", postCount),
		zap.Int("files", len(files)))
	return nil
}

// conflictAs replaces the generic message of a uniqueness violation with msg.
func conflictAs(op string, err error, msg string) error {
	err = classify(op, err)
	var e *Error
	if errors.As(err, &e) && e.Kind == KindConflict {
		e.Msg = msg
	}
	return err
}

// deleteWhere is one step of a cascade; any failure aborts the transaction.
func deleteWhere(tx *gorm.DB, op, step string, model interface{}, query string, args ...interface{}) error {
	if err := tx.Where(query, args...).Delete(model).Error; err != nil {
		return cascadeError(op, step, err)
	}
	return nil
}
