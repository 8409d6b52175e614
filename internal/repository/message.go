package repository

import (
	"context"

	"tush00nka/chitchat/internal/model"

	"gorm.io/gorm"
)

const pairCondition = "(sender = ? AND receiver = ?) OR (sender = ? AND receiver = ?)"

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	// FindBetween возвращает переписку a и b в обе стороны, от старых к новым
	FindBetween(ctx context.Context, a, b string) ([]model.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	return translate(r.db.WithContext(ctx).Create(msg).Error)
}

func (r *messageRepository) FindBetween(ctx context.Context, a, b string) ([]model.Message, error) {
	messages := []model.Message{}

	err := r.db.WithContext(ctx).
		Where(pairCondition, a, b, b, a).
		Order("timestamp asc").
		Find(&messages).Error
	if err != nil {
		return nil, translate(err)
	}

	return messages, nil
}
