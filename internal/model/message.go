package model

import "time"

// Message текстовое сообщение от одного пользователя другому, после сохранения не меняется
type Message struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Sender    string    `gorm:"not null;index:idx_messages_pair,priority:1" bson:"sender" json:"sender"`
	Receiver  string    `gorm:"not null;index:idx_messages_pair,priority:2" bson:"receiver" json:"receiver"`
	Text      string    `gorm:"type:text;not null" bson:"text" json:"text"`
	Timestamp time.Time `gorm:"not null;index:idx_messages_pair,priority:3" bson:"timestamp" json:"timestamp"`
}
