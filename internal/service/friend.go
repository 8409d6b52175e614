package service

import (
	"context"
	"errors"
	"strings"

	"tush00nka/chitchat/internal/model"
	"tush00nka/chitchat/internal/pkg/logging"
	"tush00nka/chitchat/internal/repository"
)

type friendService struct {
	users   repository.UserRepository
	friends repository.FriendRepository
	cache   repository.HistoryCache
	log     logging.Logger
}

func NewFriendService(
	users repository.UserRepository,
	friends repository.FriendRepository,
	cache repository.HistoryCache,
	log logging.Logger,
) FriendService {
	return &friendService{users: users, friends: friends, cache: cache, log: log}
}

// AddFriend добавляет владельца friendCode в список друзей ownerID.
// Дружба односторонняя, дубли в списке допустимы.
func (s *friendService) AddFriend(ctx context.Context, ownerID, friendCode string) (*model.User, error) {
	friendCode = strings.TrimSpace(friendCode)
	if friendCode == "" {
		return nil, newError(ErrValidation, "Friend code is required")
	}

	friend, err := s.users.FindByFriendCode(ctx, friendCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Friend not found")
		}
		return nil, unavailable(err)
	}

	if err := s.friends.AddFriend(ctx, ownerID, friend.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "User not found")
		}
		return nil, unavailable(err)
	}

	s.log.Info(ctx, "friend added", "user_id", ownerID, "friend_id", friend.ID)
	return friend, nil
}

// RemoveFriend убирает все вхождения friendID и удаляет переписку пары
func (s *friendService) RemoveFriend(ctx context.Context, ownerID, friendID string) error {
	friendID = strings.TrimSpace(friendID)
	if friendID == "" {
		return newError(ErrValidation, "Friend ID is required")
	}

	purged, err := s.friends.RemoveFriend(ctx, ownerID, friendID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "User not found")
		}
		return unavailable(err)
	}

	if err := s.cache.Invalidate(ctx, ownerID, friendID); err != nil {
		s.log.Warn(ctx, "history cache invalidation failed", "error", err)
	}

	s.log.Info(ctx, "friend removed", "user_id", ownerID, "friend_id", friendID, "messages_deleted", purged)
	return nil
}
