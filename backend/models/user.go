package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username     string `gorm:"unique;not null"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"default:user"` // user, admin
	Group        string
	University   string
}

type Course struct {
	gorm.Model
	Title       string
	ShortDesc   string
	Description string
	Difficulty  string // beginner, intermediate, advanced
	Topic       string
	AuthorID    uint
	LogoURL     string
	IsActive    bool `gorm:"default:true"`
}

// Enrollment links a user to a course. Daily test progress and grandtest
// attempts hang off the enrollment, not the user directly.
type Enrollment struct {
	gorm.Model
	UserID     uint   `gorm:"not null;uniqueIndex:idx_user_course"`
	CourseID   uint   `gorm:"not null;uniqueIndex:idx_user_course"`
	Status     string `gorm:"default:active"` // active, suspended, completed
	EnrolledAt time.Time
}
