// notely/sources/psql/models/note.go
package models

import (
	"time"
)

type Note struct {
	ID         int         `json:"id" gorm:"primaryKey;autoIncrement"`
	Title      string      `json:"title" gorm:"type:varchar(255);not null"`
	Content    string      `json:"content" gorm:"type:text;not null"`
	UserID     int         `json:"user_id" gorm:"not null;index"`
	User       *User       `json:"-" gorm:"foreignKey:UserID;references:ID"`
	IsFavorite bool        `json:"is_favorite" gorm:"column:is_favorite;not null;default:false"`
	CreatedAt  time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
	Images     []NoteImage `json:"images" gorm:"foreignKey:NoteID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Note) TableName() string {
	return "notes"
}
