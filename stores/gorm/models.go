//go:build !wasm
// +build !wasm

package gorm

import (
	"time"

	ma "github.com/gump416/project-runningmate"
)

// MateModel is the GORM model for mates. Email is the primary key, which is
// what makes concurrent registrations of the same email collapse into one
// winner at the database.
type MateModel struct {
	Email         string    `gorm:"primaryKey;size:255"`
	Name          string    `gorm:"size:64;index"`
	Password      string    `gorm:"size:255"`
	Birthdate     string    `gorm:"size:16"`
	PhoneNumber   string    `gorm:"size:32"`
	Address       string    `gorm:"size:255"`
	AddressDetail string    `gorm:"size:255"`
	Location      string    `gorm:"size:64"`
	Federated     bool      `gorm:"default:false"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (MateModel) TableName() string {
	return "mates"
}

func (m *MateModel) ToMate() *ma.Mate {
	return &ma.Mate{
		Email:         m.Email,
		Name:          m.Name,
		Password:      m.Password,
		Birthdate:     m.Birthdate,
		PhoneNumber:   m.PhoneNumber,
		Address:       m.Address,
		AddressDetail: m.AddressDetail,
		Location:      m.Location,
		Federated:     m.Federated,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func MateToModel(mate *ma.Mate) *MateModel {
	return &MateModel{
		Email:         mate.Email,
		Name:          mate.Name,
		Password:      mate.Password,
		Birthdate:     mate.Birthdate,
		PhoneNumber:   mate.PhoneNumber,
		Address:       mate.Address,
		AddressDetail: mate.AddressDetail,
		Location:      mate.Location,
		Federated:     mate.Federated,
		CreatedAt:     mate.CreatedAt,
		UpdatedAt:     mate.UpdatedAt,
	}
}
