// file: models/problem.go
package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Problem is a challenge definition. ImageConfig is an opaque engine blob
// (the raw PortBindings/limits document handed to the container engine);
// only the presence of a port-binding section is validated here.
type Problem struct {
	ID          uint32    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"size:100;unique;not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Author      string    `gorm:"size:50;not null" json:"author"`
	Points      int       `gorm:"not null" json:"points"`
	ImageName   string    `gorm:"size:255;not null" json:"-"`
	ImageConfig string    `gorm:"type:text;not null" json:"-"`
	Mi          int       `gorm:"default:0" json:"mi"`
	Ma          int       `gorm:"default:0" json:"ma"`
	Visible     bool      `gorm:"default:true" json:"visible"`
	Hints       []Hint    `gorm:"foreignKey:ProblemID" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Problem) TableName() string {
	return "pwncore_problem"
}

// ExposedPort extracts the single container port to publish, e.g. "22/tcp",
// from the image config's PortBindings section.
func (p *Problem) ExposedPort() (string, error) {
	var cfg struct {
		PortBindings map[string]json.RawMessage `json:"PortBindings"`
	}
	if err := json.Unmarshal([]byte(p.ImageConfig), &cfg); err != nil {
		return "", fmt.Errorf("problem %d: bad image config: %w", p.ID, err)
	}
	if len(cfg.PortBindings) == 0 {
		return "", fmt.Errorf("problem %d: image config has no PortBindings", p.ID)
	}
	ports := make([]string, 0, len(cfg.PortBindings))
	for port := range cfg.PortBindings {
		ports = append(ports, port)
	}
	sort.Strings(ports)
	return ports[0], nil
}
