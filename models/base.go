package models

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// assignId fills an empty string primary key before insert.
func assignId(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// GetUser loads a user with its company.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*User, error) {
	var user User
	err := db.WithContext(ctx).Preload("Company").Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
