// Package content persists rewritten articles into the shared content tables.
package content

import (
	"context"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// Repository is the write surface the ingestion pipeline needs.
type Repository interface {
	EnsureCategory(ctx context.Context, slug, name string) (Category, error)
	UpsertContent(ctx context.Context, item *ContentItem) error
	UpsertSource(ctx context.Context, src *ContentSource) error
	LogIngestion(ctx context.Context, entry *IngestionLog) error
}

// Options controls how the database connection is opened.
type Options struct {
	Driver      string
	DSN         string
	ReplicaDSNs []string
	MaxOpen     int
	MaxIdle     int
}

// Open connects to the configured database and registers read replicas when given.
func Open(opts Options) (*gorm.DB, error) {
	primary, err := dialector(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(primary, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", opts.Driver)
	}

	if len(opts.ReplicaDSNs) > 0 {
		replicas := make([]gorm.Dialector, 0, len(opts.ReplicaDSNs))
		for _, dsn := range opts.ReplicaDSNs {
			d, err := dialector(opts.Driver, dsn)
			if err != nil {
				return nil, err
			}
			replicas = append(replicas, d)
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, errors.Wrap(err, "register read replicas")
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "access sql pool")
	}
	if opts.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpen)
	}
	if opts.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdle)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("database dsn is empty")
	}
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pg":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite", "sqlite3":
		return sqlite.Open(dsn), nil
	default:
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate creates or updates every content table.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(AllModels()...); err != nil {
		return errors.Wrap(err, "auto-migrate content schema")
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "access sql pool")
	}
	return sqlDB.Close()
}

// GormRepository implements Repository on top of gorm.
type GormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormRepository wraps an opened database.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db, now: time.Now}
}

// EnsureCategory returns the category with slug, creating it when missing.
func (r *GormRepository) EnsureCategory(ctx context.Context, slug, name string) (Category, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Category{}, errors.New("category slug is empty")
	}

	var cat Category
	err := r.db.WithContext(ctx).Clauses(dbresolver.Write).Where("slug = ?", slug).Take(&cat).Error
	if err == nil {
		return cat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Category{}, errors.Wrapf(err, "find category %s", slug)
	}

	cat = Category{ID: uuid.NewString(), Slug: slug, Name: name}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
		Create(&cat).Error
	if err != nil {
		return Category{}, errors.Wrapf(err, "create category %s", slug)
	}

	// A concurrent writer may have won the insert; read back the stored row.
	var stored Category
	if err := r.db.WithContext(ctx).Clauses(dbresolver.Write).Where("slug = ?", slug).Take(&stored).Error; err != nil {
		return Category{}, errors.Wrapf(err, "reload category %s", slug)
	}
	return stored, nil
}

// UpsertContent inserts item or overwrites the row sharing its slug.
func (r *GormRepository) UpsertContent(ctx context.Context, item *ContentItem) error {
	if item == nil || strings.TrimSpace(item.Slug) == "" {
		return errors.New("content item requires a slug")
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "excerpt", "body", "body_html", "seo_title", "seo_description",
			"cover_image_url", "takeaways", "country", "author_id", "category_id",
			"type", "status", "published_at", "updated_at",
		}),
	}).Create(item).Error
	if err != nil {
		return errors.Wrapf(err, "upsert content %s", item.Slug)
	}
	return nil
}

// UpsertSource records attribution metadata keyed by content slug.
func (r *GormRepository) UpsertSource(ctx context.Context, src *ContentSource) error {
	if src == nil || strings.TrimSpace(src.ContentSlug) == "" {
		return errors.New("content source requires a content slug")
	}
	if src.FetchedAt.IsZero() {
		src.FetchedAt = r.now().UTC()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "content_slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"source_name", "source_url", "source_country", "provider", "original_id", "fetched_at", "updated_at",
		}),
	}).Create(src).Error
	if err != nil {
		return errors.Wrapf(err, "upsert source for %s", src.ContentSlug)
	}
	return nil
}

// LogIngestion appends one run record.
func (r *GormRepository) LogIngestion(ctx context.Context, entry *IngestionLog) error {
	if entry == nil {
		return errors.New("ingestion log entry is nil")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return errors.Wrap(err, "write ingestion log")
	}
	return nil
}
