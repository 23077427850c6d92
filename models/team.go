// file: models/team.go
package models

import (
	"time"
)

type Team struct {
	ID             uint32    `gorm:"primarykey" json:"id"`
	TeamName       string    `gorm:"size:100;unique;not null" json:"team_name"`
	InvitationCode string    `gorm:"size:20;unique;not null" json:"-"`
	Coins          int       `gorm:"default:0" json:"coins"`
	Members        []User    `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Team) TableName() string {
	return "pwncore_team"
}
