package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("material was updated by someone else")
)

// Repositories 仓库集合
type Repositories struct {
	Material    *MaterialRepository
	Record      *RecordRepository
	Quote       *QuoteRepository
	Certificate *CertificateRepository
	User        *UserRepository
	ActivityLog *ActivityLogRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Material:    NewMaterialRepository(db),
		Record:      NewRecordRepository(db),
		Quote:       NewQuoteRepository(db),
		Certificate: NewCertificateRepository(db),
		User:        NewUserRepository(db),
		ActivityLog: NewActivityLogRepository(db),
	}
}
