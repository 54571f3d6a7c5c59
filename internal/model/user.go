package model

import (
	"time"
)

const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleSystem = "system"
)

type User struct {
	ID           uint64  `gorm:"primaryKey"`
	Username     string  `gorm:"type:varchar(50);uniqueIndex:idx_username;not null"`
	Nickname     string  `gorm:"type:varchar(50);not null"`
	Email        *string `gorm:"type:varchar(100);uniqueIndex:idx_email"`
	Password     string  `gorm:"type:varchar(255);not null"`
	Role         string  `gorm:"type:varchar(20);not null;default:user"`
	ProfileImage *string `gorm:"type:varchar(255)"`
	IsBan        bool    `gorm:"default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string {
	return "users"
}
