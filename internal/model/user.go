package model

import (
	"time"

	"github.com/lib/pq"
)

// User хранится и в PostgreSQL (gorm), и в MongoDB (bson).
// Password, VerificationCode и VerificationExpiresAt не покидают сервер.
type User struct {
	ID         string         `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Name       string         `gorm:"not null" bson:"name" json:"name"`
	Email      string         `gorm:"uniqueIndex;not null" bson:"email" json:"email"`
	Password   string         `gorm:"not null" bson:"password" json:"-"`
	FriendCode string         `gorm:"uniqueIndex;not null" bson:"friendCode" json:"friendCode"`
	Friends    pq.StringArray `gorm:"type:text[]" bson:"friends" json:"friends"`

	IsVerified            bool       `gorm:"not null" bson:"isVerified" json:"isVerified"`
	VerificationCode      *string    `bson:"verificationCode,omitempty" json:"-"`
	VerificationExpiresAt *time.Time `bson:"verificationExpiresAt,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// EnsureFriends гарантирует, что пустой список друзей кодируется как [], а не null
func (u *User) EnsureFriends() {
	if u.Friends == nil {
		u.Friends = pq.StringArray{}
	}
}

// CodeExpired сообщает, истёк ли срок действия кода подтверждения
func (u *User) CodeExpired(now time.Time) bool {
	return u.VerificationExpiresAt != nil && now.After(*u.VerificationExpiresAt)
}
