package repository

import (
	"context"
	"time"

	"tush00nka/chitchat/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoMessageRepository struct {
	messages *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &mongoMessageRepository{messages: db.Collection(messagesCollection)}
}

func (r *mongoMessageRepository) Create(ctx context.Context, msg *model.Message) error {
	_, err := r.messages.InsertOne(ctx, msg)
	return translateMongo(err)
}

func (r *mongoMessageRepository) FindBetween(ctx context.Context, a, b string) ([]model.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})

	cur, err := r.messages.Find(ctx, pairFilter(a, b), opts)
	if err != nil {
		return nil, translateMongo(err)
	}
	defer cur.Close(ctx)

	messages := []model.Message{}
	for cur.Next(ctx) {
		var msg model.Message
		if err := cur.Decode(&msg); err != nil {
			return nil, err
		}
		msg.Timestamp = msg.Timestamp.UTC()
		messages = append(messages, msg)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

type mongoFriendRepository struct {
	users    *mongo.Collection
	messages *mongo.Collection
}

func NewMongoFriendRepository(db *mongo.Database) FriendRepository {
	return &mongoFriendRepository{
		users:    db.Collection(usersCollection),
		messages: db.Collection(messagesCollection),
	}
}

func (r *mongoFriendRepository) AddFriend(ctx context.Context, ownerID, friendID string) error {
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": ownerID},
		bson.M{
			"$push": bson.M{"friends": friendID},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return translateMongo(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveFriend выполняет $pull, затем deleteMany. Оба шага идемпотентны,
// повторный вызов доводит прерванную операцию до конца.
func (r *mongoFriendRepository) RemoveFriend(ctx context.Context, ownerID, friendID string) (int64, error) {
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": ownerID},
		bson.M{
			"$pull": bson.M{"friends": friendID},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return 0, translateMongo(err)
	}
	if res.MatchedCount == 0 {
		return 0, ErrNotFound
	}

	del, err := r.messages.DeleteMany(ctx, pairFilter(ownerID, friendID))
	if err != nil {
		return 0, translateMongo(err)
	}

	return del.DeletedCount, nil
}
