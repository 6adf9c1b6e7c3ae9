//go:build !wasm
// +build !wasm

package gorm

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	ma "github.com/gump416/project-runningmate"
)

// AutoMigrate runs database migrations for the mate table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&MateModel{})
}

// MateStore implements ma.MateStore and ma.RecoveryStore using GORM
type MateStore struct {
	db *gorm.DB
}

func NewMateStore(db *gorm.DB) *MateStore {
	return &MateStore{db: db}
}

func (s *MateStore) FindByEmail(email string) (*ma.Mate, error) {
	var model MateModel
	if err := s.db.First(&model, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ma.ErrMateNotFound
		}
		return nil, err
	}
	return model.ToMate(), nil
}

func (s *MateStore) Insert(mate *ma.Mate) error {
	model := MateToModel(mate)
	if err := s.db.Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return ma.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *MateStore) Save(mate *ma.Mate) (*ma.Mate, error) {
	var existing MateModel
	if err := s.db.First(&existing, "email = ?", mate.Email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ma.ErrMateNotFound
		}
		return nil, err
	}

	model := MateToModel(mate)
	model.CreatedAt = existing.CreatedAt
	if err := s.db.Save(model).Error; err != nil {
		return nil, err
	}
	return model.ToMate(), nil
}

func (s *MateStore) DeleteByEmail(email string) (bool, error) {
	result := s.db.Delete(&MateModel{}, "email = ?", email)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *MateStore) FindByNameAndPassword(name, password string) (*ma.Mate, error) {
	var model MateModel
	err := s.db.First(&model, "name = ? AND password = ?", name, password).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ma.ErrMateNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.ToMate(), nil
}

func (s *MateStore) FindByNameAndEmail(name, email string) (*ma.Mate, error) {
	var model MateModel
	err := s.db.First(&model, "name = ? AND email = ?", name, email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ma.ErrMateNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.ToMate(), nil
}

// isUniqueViolation catches drivers that surface the constraint error without
// gorm's error translation enabled.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
