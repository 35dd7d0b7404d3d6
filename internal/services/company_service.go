package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/search"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/validation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	reindexBatch    = 100
)

type CompanyService struct {
	db    *gorm.DB
	index search.Index
}

func NewCompanyService(db *gorm.DB, index search.Index) *CompanyService {
	return &CompanyService{db: db, index: index}
}

// NormalizePage clamps paging input: negative offsets become 0, a missing
// or non-positive size becomes DefaultPageSize, and sizes are capped.
func NormalizePage(from, size int) (int, int) {
	if from < 0 {
		from = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return from, size
}

// List pages through the search index. A missing index yields an empty page.
func (s *CompanyService) List(ctx context.Context, from, size int) ([]search.Document, error) {
	from, size = NormalizePage(from, size)
	return s.query(ctx, "", from, size)
}

// Search runs a free-text query against the search index.
func (s *CompanyService) Search(ctx context.Context, text string) ([]search.Document, error) {
	return s.query(ctx, text, 0, DefaultPageSize)
}

func (s *CompanyService) query(ctx context.Context, text string, from, size int) ([]search.Document, error) {
	docs, err := s.index.Search(ctx, text, from, size)
	if search.IsNotFound(err) {
		return []search.Document{}, nil
	}
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Get looks a company up by its public id.
func (s *CompanyService) Get(ctx context.Context, publicID string) (*models.Company, error) {
	var company models.Company
	err := s.db.WithContext(ctx).Where("public_id = ?", publicID).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, storeErr("find company", err)
	}
	return &company, nil
}

// Create checks title uniqueness, validates, persists, then mirrors the new
// company into the search index.
func (s *CompanyService) Create(ctx context.Context, req *validation.CompanyCandidate) (*models.Company, error) {
	if err := s.CheckTitle(ctx, req.Title); err != nil {
		return nil, err
	}

	if err := validation.ValidateCompany(req); err != nil {
		return nil, err
	}

	company := models.Company{
		Title:             req.Title,
		Description:       req.Description,
		URL:               req.URL,
		PunchcardLifetime: req.PunchcardLifetime,
	}
	if err := s.db.WithContext(ctx).Create(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrTitleTaken
		}
		return nil, storeErr("create company", err)
	}
	metrics.CompaniesChanged.WithLabelValues("create").Inc()

	if err := s.index.IndexDocument(ctx, company.PublicID, toDocument(&company)); err != nil {
		metrics.IndexMirrorFailures.WithLabelValues("create").Inc()
		slog.Error("company saved but not indexed", "company_id", company.PublicID, "error", err)
		return &company, err
	}
	return &company, nil
}

// Update fully replaces a company. The target must exist, the candidate must
// validate, and no other company may hold the new title.
func (s *CompanyService) Update(ctx context.Context, publicID string, req *validation.CompanyCandidate) (*models.Company, error) {
	company, err := s.Get(ctx, publicID)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateCompany(req); err != nil {
		return nil, err
	}

	taken, err := s.titleTaken(ctx, req.Title, company.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrTitleTaken
	}

	company.Title = req.Title
	company.Description = req.Description
	company.URL = req.URL
	company.PunchcardLifetime = req.PunchcardLifetime
	company.Created = time.Now().UTC()

	if err := s.db.WithContext(ctx).Save(company).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrTitleTaken
		}
		return nil, storeErr("update company", err)
	}
	metrics.CompaniesChanged.WithLabelValues("update").Inc()

	if err := s.index.DeleteDocument(ctx, company.PublicID); err != nil {
		metrics.IndexMirrorFailures.WithLabelValues("update").Inc()
		return company, err
	}
	if err := s.index.IndexDocument(ctx, company.PublicID, toDocument(company)); err != nil {
		metrics.IndexMirrorFailures.WithLabelValues("update").Inc()
		return company, err
	}
	return company, nil
}

// Delete removes a company from the store and, if it existed, from the index.
func (s *CompanyService) Delete(ctx context.Context, publicID string) error {
	result := s.db.WithContext(ctx).Where("public_id = ?", publicID).Delete(&models.Company{})
	if result.Error != nil {
		return storeErr("delete company", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCompanyNotFound
	}
	metrics.CompaniesChanged.WithLabelValues("delete").Inc()

	if err := s.index.DeleteDocument(ctx, publicID); err != nil {
		metrics.IndexMirrorFailures.WithLabelValues("delete").Inc()
		return err
	}
	return nil
}

// Reindex rebuilds the search index from the record store and returns the
// number of companies indexed.
func (s *CompanyService) Reindex(ctx context.Context) (int, error) {
	if err := s.index.Reset(ctx); err != nil {
		return 0, err
	}

	indexed := 0
	var batch []models.Company
	var indexErr error
	result := s.db.WithContext(ctx).FindInBatches(&batch, reindexBatch, func(tx *gorm.DB, _ int) error {
		for i := range batch {
			if err := s.index.IndexDocument(ctx, batch[i].PublicID, toDocument(&batch[i])); err != nil {
				indexErr = err
				return err
			}
			indexed++
		}
		return nil
	})
	if indexErr != nil {
		return indexed, indexErr
	}
	if result.Error != nil {
		return indexed, storeErr("scan companies", result.Error)
	}

	slog.Info("search index rebuilt", "companies", indexed)
	return indexed, nil
}

// CheckTitle returns ErrTitleTaken when a company already holds title.
func (s *CompanyService) CheckTitle(ctx context.Context, title string) error {
	taken, err := s.titleTaken(ctx, title, uuid.Nil)
	if err != nil {
		return err
	}
	if taken {
		return ErrTitleTaken
	}
	return nil
}

func (s *CompanyService) titleTaken(ctx context.Context, title string, exclude uuid.UUID) (bool, error) {
	q := s.db.WithContext(ctx).Model(&models.Company{}).Where("title = ?", title)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, storeErr("check title", err)
	}
	return count > 0, nil
}

func toDocument(c *models.Company) search.Document {
	return search.Document{
		ID:                c.PublicID,
		Title:             c.Title,
		Description:       c.Description,
		URL:               c.URL,
		PunchcardLifetime: c.PunchcardLifetime,
		Created:           c.Created,
	}
}

