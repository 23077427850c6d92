// file: models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	ID        uint32    `gorm:"primarykey" json:"id"`
	Username  string    `gorm:"size:50;unique;not null" json:"username"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Email     string    `gorm:"size:100;unique;not null" json:"email"`
	PhoneNum  string    `gorm:"size:20" json:"phone_num,omitempty"`
	TeamID    *uint32   `json:"team_id,omitempty"`
	Team      *Team     `gorm:"foreignKey:TeamID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "pwncore_user"
}

// BeforeSave hashes the password on create and whenever it changes.
func (u *User) BeforeSave(tx *gorm.DB) (err error) {
	if u.ID == 0 || tx.Statement.Changed("Password") {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hashedPassword)
	}
	return
}

// CheckPassword reports whether the plaintext matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}
