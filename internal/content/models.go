package content

import "time"

// Category groups content rows; ingestion keeps one per country plus a generic fallback.
type Category struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Slug      string    `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name.
func (Category) TableName() string {
	return "categories"
}

// ContentItem is one publishable article row, shared with the editorial UI.
type ContentItem struct {
	ID             string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Slug           string     `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Title          string     `gorm:"size:500;not null" json:"title"`
	Excerpt        string     `gorm:"type:text" json:"excerpt"`
	Body           string     `gorm:"type:text" json:"body"`
	BodyHTML       string     `gorm:"type:text" json:"body_html"`
	SEOTitle       string     `gorm:"column:seo_title;size:600" json:"seo_title"`
	SEODescription string     `gorm:"column:seo_description;size:400" json:"seo_description"`
	CoverImageURL  string     `gorm:"size:1000" json:"cover_image_url"`
	Takeaways      []string   `gorm:"serializer:json;type:text" json:"takeaways"`
	Country        string     `gorm:"size:8;index" json:"country"`
	AuthorID       string     `gorm:"size:64;not null" json:"author_id"`
	CategoryID     string     `gorm:"size:36;index" json:"category_id"`
	Type           string     `gorm:"size:32;not null;default:news" json:"type"`
	Status         string     `gorm:"size:32;not null;default:published" json:"status"`
	PublishedAt    *time.Time `gorm:"index" json:"published_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName pins the table name.
func (ContentItem) TableName() string {
	return "content_items"
}

// ContentSource attributes a content row to the outlet and provider it came from.
type ContentSource struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ContentSlug   string    `gorm:"size:120;uniqueIndex;not null" json:"content_slug"`
	SourceName    string    `gorm:"size:200" json:"source_name"`
	SourceURL     string    `gorm:"size:1000" json:"source_url"`
	SourceCountry string    `gorm:"size:8" json:"source_country"`
	Provider      string    `gorm:"size:64" json:"provider"`
	OriginalID    string    `gorm:"size:1000" json:"original_id"`
	FetchedAt     time.Time `json:"fetched_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName pins the table name.
func (ContentSource) TableName() string {
	return "content_sources"
}

// IngestionLog records one pipeline run.
type IngestionLog struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Country     string    `gorm:"size:8;index" json:"country"`
	Query       string    `gorm:"size:200" json:"query"`
	Fetched     int       `json:"fetched"`
	Returned    int       `json:"returned"`
	Saved       int       `json:"saved"`
	Failed      int       `json:"failed"`
	Degraded    int       `json:"degraded"`
	Providers   []string  `gorm:"serializer:json;type:text" json:"providers"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// TableName pins the table name.
func (IngestionLog) TableName() string {
	return "ingestion_logs"
}

// AllModels lists every table managed by Migrate.
func AllModels() []any {
	return []any{&Category{}, &ContentItem{}, &ContentSource{}, &IngestionLog{}}
}
