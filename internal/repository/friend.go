package repository

import (
	"context"

	"tush00nka/chitchat/internal/model"

	"gorm.io/gorm"
)

type FriendRepository interface {
	// AddFriend добавляет friendID в список друзей владельца, дубли сохраняются
	AddFriend(ctx context.Context, ownerID, friendID string) error
	// RemoveFriend убирает все вхождения friendID из списка владельца и удаляет
	// переписку пары. Возвращает число удалённых сообщений.
	RemoveFriend(ctx context.Context, ownerID, friendID string) (int64, error)
}

type friendRepository struct {
	db *gorm.DB
}

func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) AddFriend(ctx context.Context, ownerID, friendID string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", ownerID).
		Update("friends", gorm.Expr("array_append(friends, ?)", friendID))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *friendRepository) RemoveFriend(ctx context.Context, ownerID, friendID string) (int64, error) {
	var purged int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).
			Where("id = ?", ownerID).
			Update("friends", gorm.Expr("array_remove(friends, ?)", friendID))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		del := tx.Where(pairCondition, ownerID, friendID, friendID, ownerID).Delete(&model.Message{})
		if del.Error != nil {
			return del.Error
		}
		purged = del.RowsAffected

		return nil
	})
	if err != nil {
		return 0, translate(err)
	}

	return purged, nil
}
