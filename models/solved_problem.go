// file: models/solved_problem.go
package models

import (
	"time"
)

type SolvedProblem struct {
	ID        uint32    `gorm:"primarykey" json:"id"`
	TeamID    uint32    `gorm:"not null;uniqueIndex:idx_team_problem" json:"team_id"`
	ProblemID uint32    `gorm:"not null;uniqueIndex:idx_team_problem" json:"problem_id"`
	UserID    uint32    `gorm:"not null" json:"user_id"`
	CreatedAt time.Time `json:"solved_at"`
}

func (SolvedProblem) TableName() string {
	return "pwncore_solved_problem"
}
