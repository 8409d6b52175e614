package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"tush00nka/chitchat/internal/model"
	"tush00nka/chitchat/internal/pkg/logging"
	"tush00nka/chitchat/internal/repository"

	"github.com/google/uuid"
)

type messageService struct {
	users    repository.UserRepository
	messages repository.MessageRepository
	cache    repository.HistoryCache
	log      logging.Logger
	nowFunc  func() time.Time
}

func NewMessageService(
	users repository.UserRepository,
	messages repository.MessageRepository,
	cache repository.HistoryCache,
	log logging.Logger,
) MessageService {
	return &messageService{
		users:    users,
		messages: messages,
		cache:    cache,
		log:      log,
		nowFunc:  time.Now,
	}
}

// SendMessage сохраняет сообщение, в живой канал ничего не публикует
func (s *messageService) SendMessage(ctx context.Context, senderID, receiverID, text string) (*model.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, newError(ErrValidation, "Message text is required")
	}
	if senderID == "" || receiverID == "" {
		return nil, newError(ErrValidation, "Sender and receiver are required")
	}

	for _, id := range []string{senderID, receiverID} {
		if _, err := s.users.FindByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, newError(ErrNotFound, "Sender or Receiver not found")
			}
			return nil, unavailable(err)
		}
	}

	// Миллисекунды: точность, которую сохраняют оба хранилища
	ts := s.nowFunc().UTC().Truncate(time.Millisecond)

	msg := &model.Message{
		ID:        uuid.NewString(),
		Sender:    senderID,
		Receiver:  receiverID,
		Text:      text,
		Timestamp: ts,
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, unavailable(err)
	}

	if err := s.cache.Invalidate(ctx, senderID, receiverID); err != nil {
		s.log.Warn(ctx, "history cache invalidation failed", "error", err)
	}

	return msg, nil
}

// GetHistory возвращает всю переписку пары, от старых к новым
func (s *messageService) GetHistory(ctx context.Context, userID, friendID string) ([]model.Message, error) {
	cached, version, ok, cacheErr := s.cache.Get(ctx, userID, friendID)
	if cacheErr != nil {
		s.log.Warn(ctx, "history cache read failed", "error", cacheErr)
	} else if ok {
		return cached, nil
	}

	messages, err := s.messages.FindBetween(ctx, userID, friendID)
	if err != nil {
		return nil, unavailable(err)
	}

	// Версия прочитана до загрузки: если за это время была инвалидация,
	// запись уйдёт под старую версию и читаться не будет
	if cacheErr == nil {
		if err := s.cache.Put(ctx, userID, friendID, version, messages); err != nil {
			s.log.Warn(ctx, "history cache write failed", "error", err)
		}
	}

	return messages, nil
}
