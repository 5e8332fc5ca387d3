package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionCategory struct {
	gorm.Model
	Name        string `gorm:"unique;not null"`
	Description string
}

// Question is the generic bank: options carry their own correct flags and a
// submission is graded against the full correct set.
type Question struct {
	gorm.Model
	CategoryID   uint   `gorm:"index"`
	QuestionText string `gorm:"not null"`
	QuestionType string `gorm:"default:single_choice"` // single_choice, multiple_choice, true_false, fill_blank, essay
	Difficulty   string `gorm:"default:beginner"`      // beginner, intermediate, advanced, expert
	Points       int    `gorm:"default:1"`
	IsActive     bool   `gorm:"default:true;index"`
	Options      []QuestionOption
	Category     QuestionCategory `gorm:"foreignKey:CategoryID"`
}

type QuestionOption struct {
	gorm.Model
	QuestionID uint   `gorm:"not null;index"`
	OptionText string `gorm:"not null"`
	IsCorrect  bool   `gorm:"default:false"`
}

// QuizQuestion is the single-answer bank used by daily tests: the correct
// answer is stored as a plain string next to a label->text options map.
type QuizQuestion struct {
	gorm.Model
	CategoryID    uint           `gorm:"index"`
	QuestionText  string         `gorm:"not null"`
	Options       datatypes.JSON // {"a": "...", "b": "..."}
	CorrectAnswer string         `gorm:"not null"`
	Difficulty    string         `gorm:"default:easy"` // easy, medium, hard
	Points        int            `gorm:"default:1"`
	IsActive      bool           `gorm:"default:true;index"`
}
