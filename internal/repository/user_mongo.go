package repository

import (
	"context"
	"time"

	"tush00nka/chitchat/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoUserRepository struct {
	users *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{users: db.Collection(usersCollection)}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	user.EnsureFriends()
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := r.users.InsertOne(ctx, user)
	return translateMongo(err)
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) FindByFriendCode(ctx context.Context, code string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"friendCode": code})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	if err := r.users.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translateMongo(err)
	}
	user.EnsureFriends()
	return &user, nil
}

func (r *mongoUserRepository) FindAll(ctx context.Context) ([]*model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cur, err := r.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, translateMongo(err)
	}
	defer cur.Close(ctx)

	users := []*model.User{}
	for cur.Next(ctx) {
		var user model.User
		if err := cur.Decode(&user); err != nil {
			return nil, err
		}
		user.EnsureFriends()
		users = append(users, &user)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *mongoUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) FriendCodeExists(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, bson.M{"friendCode": code})
}

func (r *mongoUserRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	count, err := r.users.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, translateMongo(err)
	}
	return count > 0, nil
}

func (r *mongoUserRepository) SetVerificationCode(ctx context.Context, id, code string, expiresAt time.Time) error {
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": id, "isVerified": false},
		bson.M{"$set": bson.M{
			"verificationCode":      code,
			"verificationExpiresAt": expiresAt,
			"updatedAt":             time.Now().UTC(),
		}},
	)
	if err != nil {
		return translateMongo(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) MarkVerified(ctx context.Context, id, code string) (bool, error) {
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": id, "isVerified": false, "verificationCode": code},
		bson.M{
			"$set":   bson.M{"isVerified": true, "updatedAt": time.Now().UTC()},
			"$unset": bson.M{"verificationCode": "", "verificationExpiresAt": ""},
		},
	)
	if err != nil {
		return false, translateMongo(err)
	}
	return res.ModifiedCount == 1, nil
}
