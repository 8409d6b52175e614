package repository

import (
	"context"
	"time"

	"tush00nka/chitchat/internal/model"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByFriendCode(ctx context.Context, code string) (*model.User, error)
	FindAll(ctx context.Context) ([]*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	FriendCodeExists(ctx context.Context, code string) (bool, error)
	// SetVerificationCode заменяет код неподтверждённого пользователя
	SetVerificationCode(ctx context.Context, id, code string, expiresAt time.Time) error
	// MarkVerified выставляет is_verified, только если пользователь ещё не
	// подтверждён и код совпадает. Возвращает, изменилась ли строка.
	MarkVerified(ctx context.Context, id, code string) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	user.EnsureFriends()
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) FindByFriendCode(ctx context.Context, code string) (*model.User, error) {
	return r.findOne(ctx, "friend_code = ?", code)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	user.EnsureFriends()
	return &user, nil
}

func (r *userRepository) FindAll(ctx context.Context) ([]*model.User, error) {
	users := []*model.User{}
	if err := r.db.WithContext(ctx).Order("created_at asc").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	for _, user := range users {
		user.EnsureFriends()
	}
	return users, nil
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *userRepository) FriendCodeExists(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, "friend_code = ?", code)
}

func (r *userRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where(query, arg).Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *userRepository) SetVerificationCode(ctx context.Context, id, code string, expiresAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND is_verified = ?", id, false).
		Updates(map[string]any{
			"verification_code":       code,
			"verification_expires_at": expiresAt,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) MarkVerified(ctx context.Context, id, code string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND is_verified = ? AND verification_code = ?", id, false, code).
		Updates(map[string]any{
			"is_verified":             true,
			"verification_code":       nil,
			"verification_expires_at": nil,
		})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}
