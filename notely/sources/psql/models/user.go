package models

import "time"

type User struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:users_email_key"`
	Name      *string   `json:"name,omitempty" gorm:"type:varchar(255)"`
	Image     *string   `json:"image,omitempty" gorm:"type:varchar(512)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}
