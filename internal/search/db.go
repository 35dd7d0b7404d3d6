package search

import (
	"context"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// companyDocument is the row layout of the database-backed index.
type companyDocument struct {
	DocID             string    `gorm:"primaryKey;size:36"`
	Title             string    `gorm:"size:255;index"`
	TitleLower        string    `gorm:"size:255;index"`
	Description       string    `gorm:"type:text"`
	DescriptionLower  string    `gorm:"type:text"`
	URL               string    `gorm:"size:2048"`
	PunchcardLifetime *int
	Created           time.Time `gorm:"index"`
}

func (companyDocument) TableName() string {
	return "company_documents"
}

// DBIndex keeps the company projection in a table of the record store's
// database. It is used when no Elasticsearch cluster is configured.
type DBIndex struct {
	db *gorm.DB
}

func NewDBIndex(db *gorm.DB) *DBIndex {
	return &DBIndex{db: db}
}

func (ix *DBIndex) Search(ctx context.Context, query string, from, size int) ([]Document, error) {
	db := ix.db.WithContext(ctx)
	if !db.Migrator().HasTable(&companyDocument{}) {
		return nil, ErrIndexNotFound
	}

	q := db.Model(&companyDocument{})
	order := clause.OrderBy{Expression: clause.Expr{SQL: "created ASC, doc_id ASC"}}
	if terms := strings.ToLower(strings.TrimSpace(query)); terms != "" {
		pattern := "%" + escapeLike(terms) + "%"
		q = q.Where("title_lower LIKE ? ESCAPE '\\' OR description_lower LIKE ? ESCAPE '\\'", pattern, pattern)
		// Title hits rank ahead of description-only hits.
		order = clause.OrderBy{Expression: clause.Expr{
			SQL:  "CASE WHEN title_lower LIKE ? ESCAPE '\\' THEN 0 ELSE 1 END, created ASC, doc_id ASC",
			Vars: []interface{}{pattern},
		}}
	}

	var rows []companyDocument
	if err := q.Clauses(order).Scopes(page(from, size)).Find(&rows).Error; err != nil {
		return nil, wrap("query", err)
	}

	docs := make([]Document, len(rows))
	for i, r := range rows {
		docs[i] = Document{
			ID:                r.DocID,
			Title:             r.Title,
			Description:       r.Description,
			URL:               r.URL,
			PunchcardLifetime: r.PunchcardLifetime,
			Created:           r.Created,
		}
	}
	return docs, nil
}

// IndexDocument upserts a document, creating the table on first write the way
// Elasticsearch creates an index on first document.
func (ix *DBIndex) IndexDocument(ctx context.Context, id string, doc Document) error {
	if !ix.db.WithContext(ctx).Migrator().HasTable(&companyDocument{}) {
		if err := ix.EnsureIndex(ctx); err != nil {
			return err
		}
	}
	row := companyDocument{
		DocID:             id,
		Title:             doc.Title,
		TitleLower:        strings.ToLower(doc.Title),
		Description:       doc.Description,
		DescriptionLower:  strings.ToLower(doc.Description),
		URL:               doc.URL,
		PunchcardLifetime: doc.PunchcardLifetime,
		Created:           doc.Created,
	}
	err := ix.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	return wrap("index document", err)
}

func (ix *DBIndex) DeleteDocument(ctx context.Context, id string) error {
	err := ix.db.WithContext(ctx).Where("doc_id = ?", id).Delete(&companyDocument{}).Error
	if err != nil && !ix.db.Migrator().HasTable(&companyDocument{}) {
		return nil
	}
	return wrap("delete document", err)
}

func (ix *DBIndex) EnsureIndex(ctx context.Context) error {
	return wrap("create index", database.MigrateModels(ix.db.WithContext(ctx), &companyDocument{}))
}

func (ix *DBIndex) Reset(ctx context.Context) error {
	db := ix.db.WithContext(ctx)
	if err := db.Migrator().DropTable(&companyDocument{}); err != nil {
		return wrap("drop index", err)
	}
	return ix.EnsureIndex(ctx)
}

func (ix *DBIndex) Ping(ctx context.Context) error {
	sqlDB, err := ix.db.DB()
	if err != nil {
		return wrap("ping", err)
	}
	return wrap("ping", sqlDB.PingContext(ctx))
}

// page returns a GORM scope selecting size rows starting at from.
func page(from, size int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(from).Limit(size)
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
