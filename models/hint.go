// file: models/hint.go
package models

import (
	"time"
)

// Hint is revealed to a team in order, each unlock costing the configured
// coin penalty.
type Hint struct {
	ID        uint32    `gorm:"primarykey" json:"id"`
	ProblemID uint32    `gorm:"not null;index" json:"problem_id"`
	Order     int       `gorm:"column:hint_order;not null" json:"order"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"-"`
}

func (Hint) TableName() string {
	return "pwncore_hint"
}

// ViewedHint records that a team has paid for and seen a hint.
type ViewedHint struct {
	ID        uint32    `gorm:"primarykey" json:"id"`
	TeamID    uint32    `gorm:"not null;uniqueIndex:idx_team_hint" json:"team_id"`
	HintID    uint32    `gorm:"not null;uniqueIndex:idx_team_hint" json:"hint_id"`
	CreatedAt time.Time `json:"viewed_at"`
}

func (ViewedHint) TableName() string {
	return "pwncore_viewed_hint"
}
