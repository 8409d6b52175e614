package service

import (
	"context"
	"time"

	"tush00nka/chitchat/internal/model"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenManager interface {
	Issue(userID string) (string, time.Time, error)
	Verify(token string) (string, error)
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) error
	Verify(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// Authenticate возвращает id пользователя по bearer токену
	Authenticate(token string) (string, error)
}

type UserService interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
}

type FriendService interface {
	AddFriend(ctx context.Context, ownerID, friendCode string) (*model.User, error)
	RemoveFriend(ctx context.Context, ownerID, friendID string) error
}

type MessageService interface {
	SendMessage(ctx context.Context, senderID, receiverID, text string) (*model.Message, error)
	GetHistory(ctx context.Context, userID, friendID string) ([]model.Message, error)
}
