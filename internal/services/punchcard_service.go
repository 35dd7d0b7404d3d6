package services

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PunchcardService struct {
	db    *gorm.DB
	users *UserService
}

func NewPunchcardService(db *gorm.DB, users *UserService) *PunchcardService {
	return &PunchcardService{db: db, users: users}
}

// Punch records that the token holder collected a stamp from the company.
// Checks run in order: company exists, token present, token resolves to a
// user, no punchcard for the pair yet.
func (s *PunchcardService) Punch(ctx context.Context, companyRef, token string) (*models.Punchcard, error) {
	company, err := s.findCompany(ctx, companyRef)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	var existing models.Punchcard
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", user.ID, company.ID).
		First(&existing).Error
	if err == nil {
		return nil, ErrPunchcardExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr("find punchcard", err)
	}

	punch := models.Punchcard{
		CompanyID: company.ID,
		UserID:    user.ID,
	}
	if err := s.db.WithContext(ctx).Create(&punch).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPunchcardExists
		}
		return nil, storeErr("create punchcard", err)
	}
	metrics.PunchesRecorded.Inc()

	return &punch, nil
}

// findCompany accepts either the store id or the public id.
func (s *PunchcardService) findCompany(ctx context.Context, ref string) (*models.Company, error) {
	id, err := uuid.Parse(ref)
	if err != nil {
		return nil, ErrCompanyNotFound
	}

	var company models.Company
	err = s.db.WithContext(ctx).
		Where("id = ? OR public_id = ?", id, id.String()).
		First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, storeErr("find company", err)
	}
	return &company, nil
}
