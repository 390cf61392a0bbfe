// Package contact persists admission-team contact requests collected by the
// intake flow.
package contact

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
	errx "github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/core/error"
)

// Record is one submitted contact request. Status starts at "pending" and is
// moved along by the admission team outside this service.
type Record struct {
	ID        uint   `gorm:"primaryKey"`
	Reference string `gorm:"uniqueIndex;size:36"`
	Name      string
	Email     string
	Phone     string `gorm:"size:10"`
	Programme string
	QueryType string
	Message   string
	Status    string `gorm:"default:pending"`
	CreatedAt time.Time
}

func (Record) TableName() string { return "contact_requests" }

// Store writes contact requests to Postgres.
type Store struct {
	db *gorm.DB
}

var _ model.ContactSink = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Record{})
}

// Submit stores the request and returns the reference id the user is shown.
func (s *Store) Submit(ctx context.Context, req *model.ContactRequest) (string, error) {
	rec := Record{
		Reference: uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Programme: req.Programme,
		QueryType: req.QueryType,
		Message:   req.Message,
		Status:    "pending",
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", errx.WrapLookup(err)
	}
	return rec.Reference, nil
}
