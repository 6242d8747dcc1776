package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/stjosephms/school-site-api/internal/models"
	"github.com/stjosephms/school-site-api/internal/slug"
)

// Importer performs the one-shot migration from the legacy site's
// backup database into the current schema. It is destructive: all
// content rows in the target are cleared before importing.
type Importer struct {
	source *sqlx.DB
	target *sqlx.DB
	logger *zap.Logger
}

// Summary reports what a run imported.
type Summary struct {
	Users            int
	SchoolInfo       int
	Categories       int
	Documents        int
	SkippedDocuments int
	News             int
}

// NewImporter wires the legacy source and the current target databases.
func NewImporter(source, target *sqlx.DB, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{source: source, target: target, logger: logger}
}

// legacy row shapes, matching the backup schema column order.

type legacyUser struct {
	ID          int64     `db:"id"`
	Password    string    `db:"password"`
	IsSuperuser bool      `db:"is_superuser"`
	Username    string    `db:"username"`
	FirstName   string    `db:"first_name"`
	LastName    string    `db:"last_name"`
	Email       string    `db:"email"`
	IsStaff     bool      `db:"is_staff"`
	IsActive    bool      `db:"is_active"`
	DateJoined  time.Time `db:"date_joined"`
}

type legacySchoolInfo struct {
	Name             sql.NullString `db:"name"`
	Motto            sql.NullString `db:"motto"`
	Address          sql.NullString `db:"address"`
	Phone            sql.NullString `db:"phone"`
	Email            sql.NullString `db:"email"`
	PrincipalName    sql.NullString `db:"principal_name"`
	PrincipalMessage sql.NullString `db:"principal_message"`
}

type legacyCategory struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	Description  sql.NullString `db:"description"`
	Icon         sql.NullString `db:"icon"`
	DisplayOrder sql.NullInt64  `db:"display_order"`
	IsActive     sql.NullBool   `db:"is_active"`
}

type legacyDocument struct {
	ID            int64          `db:"id"`
	Title         string         `db:"title"`
	Description   sql.NullString `db:"description"`
	CategoryID    sql.NullInt64  `db:"category_id"`
	FilePath      sql.NullString `db:"file"`
	FileType      sql.NullString `db:"file_type"`
	FileSize      sql.NullString `db:"file_size"`
	Thumbnail     sql.NullString `db:"thumbnail"`
	DownloadCount sql.NullInt64  `db:"download_count"`
	IsActive      sql.NullBool   `db:"is_active"`
	RequiresLogin sql.NullBool   `db:"requires_login"`
	CreatedByID   sql.NullInt64  `db:"created_by_id"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	PublishedDate time.Time      `db:"published_date"`
}

type legacyNews struct {
	ID          int64          `db:"id"`
	Title       string         `db:"title"`
	Content     string         `db:"content"`
	NewsType    sql.NullString `db:"news_type"`
	Image       sql.NullString `db:"image"`
	CreatedByID sql.NullInt64  `db:"created_by_id"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
	IsPublished sql.NullBool   `db:"is_published"`
}

// Run executes the full migration and returns the counts.
func (m *Importer) Run(ctx context.Context) (*Summary, error) {
	m.logger.Info("migrating data from backup database")

	if err := m.clearTarget(ctx); err != nil {
		return nil, err
	}

	summary := &Summary{}

	userMap, fallbackUser, err := m.importUsers(ctx, summary)
	if err != nil {
		return nil, err
	}
	if err := m.importSchoolInfo(ctx, summary); err != nil {
		return nil, err
	}
	categoryMap, err := m.importCategories(ctx, summary)
	if err != nil {
		return nil, err
	}
	if err := m.importDocuments(ctx, summary, categoryMap, userMap, fallbackUser); err != nil {
		return nil, err
	}
	if err := m.importNews(ctx, summary, userMap, fallbackUser); err != nil {
		return nil, err
	}

	m.logger.Info("migration complete",
		zap.Int("users", summary.Users),
		zap.Int("school_info", summary.SchoolInfo),
		zap.Int("categories", summary.Categories),
		zap.Int("documents", summary.Documents),
		zap.Int("documents_skipped", summary.SkippedDocuments),
		zap.Int("news", summary.News))
	return summary, nil
}

// clearTarget wipes only the tables the import repopulates. Documents
// go first so the category FK restriction cannot block the sweep.
// Contact messages are native to the new site and survive a re-run.
func (m *Importer) clearTarget(ctx context.Context) error {
	for _, table := range []string{"news", "documents", "document_categories", "school_info"} {
		if _, err := m.target.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func (m *Importer) importUsers(ctx context.Context, summary *Summary) (map[int64]string, string, error) {
	m.logger.Info("migrating users")

	var rows []legacyUser
	err := m.source.SelectContext(ctx, &rows,
		`SELECT id, password, is_superuser, username, first_name, last_name, email, is_staff, is_active, date_joined
		 FROM auth_user ORDER BY id`)
	if err != nil {
		return nil, "", fmt.Errorf("read legacy users: %w", err)
	}

	userMap := make(map[int64]string, len(rows))
	fallback := ""
	for _, row := range rows {
		email := row.Email
		if email == "" {
			email = row.Username + "@legacy.invalid"
		}

		var existingID string
		err := m.target.GetContext(ctx, &existingID, `SELECT id FROM users WHERE email = $1`, email)
		if err == nil {
			userMap[row.ID] = existingID
			if fallback == "" {
				fallback = existingID
			}
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, "", fmt.Errorf("check user %s: %w", email, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(row.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, "", fmt.Errorf("hash password for %s: %w", email, err)
		}

		role := models.RoleMember
		if row.IsSuperuser {
			role = models.RoleSuperAdmin
		} else if row.IsStaff {
			role = models.RoleStaff
		}

		fullName := row.FirstName
		if row.LastName != "" {
			if fullName != "" {
				fullName += " "
			}
			fullName += row.LastName
		}
		if fullName == "" {
			fullName = row.Username
		}

		id := uuid.NewString()
		_, err = m.target.ExecContext(ctx,
			`INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
			id, email, string(hash), fullName, role, row.IsActive, row.DateJoined)
		if err != nil {
			return nil, "", fmt.Errorf("insert user %s: %w", email, err)
		}

		userMap[row.ID] = id
		if fallback == "" {
			fallback = id
		}
		summary.Users++
		m.logger.Info("migrated user", zap.String("username", row.Username))
	}
	return userMap, fallback, nil
}

func (m *Importer) importSchoolInfo(ctx context.Context, summary *Summary) error {
	m.logger.Info("migrating school info")

	var rows []legacySchoolInfo
	err := m.source.SelectContext(ctx, &rows,
		`SELECT name, motto, address, phone, email, principal_name, principal_message FROM school_app_schoolinfo`)
	if err != nil {
		return fmt.Errorf("read legacy school info: %w", err)
	}

	for _, row := range rows {
		name := row.Name.String
		if name == "" {
			name = "St Joseph Mission School"
		}
		_, err := m.target.ExecContext(ctx,
			`INSERT INTO school_info (id, name, motto, address, phone, email, principal_name, principal_message, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
			uuid.NewString(), name, row.Motto.String, row.Address.String, row.Phone.String,
			row.Email.String, row.PrincipalName.String, row.PrincipalMessage.String)
		if err != nil {
			return fmt.Errorf("insert school info: %w", err)
		}
		summary.SchoolInfo++
	}
	return nil
}

func (m *Importer) importCategories(ctx context.Context, summary *Summary) (map[int64]string, error) {
	m.logger.Info("migrating categories")

	var rows []legacyCategory
	err := m.source.SelectContext(ctx, &rows,
		`SELECT id, name, description, icon, display_order, is_active FROM school_app_documentcategory ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read legacy categories: %w", err)
	}

	categoryMap := make(map[int64]string, len(rows))
	for _, row := range rows {
		id := uuid.NewString()
		slugValue, err := slug.Generate(ctx, row.Name, id, m.categorySlugExists)
		if err != nil {
			return nil, fmt.Errorf("derive slug for category %q: %w", row.Name, err)
		}

		icon := row.Icon.String
		if icon == "" {
			icon = "fas fa-file"
		}
		active := true
		if row.IsActive.Valid {
			active = row.IsActive.Bool
		}

		_, err = m.target.ExecContext(ctx,
			`INSERT INTO document_categories (id, name, slug, description, icon, display_order, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, row.Name, slugValue, row.Description.String, icon, row.DisplayOrder.Int64, active)
		if err != nil {
			return nil, fmt.Errorf("insert category %q: %w", row.Name, err)
		}

		categoryMap[row.ID] = id
		summary.Categories++
		m.logger.Info("migrated category", zap.String("name", row.Name), zap.String("slug", slugValue))
	}
	return categoryMap, nil
}

func (m *Importer) importDocuments(ctx context.Context, summary *Summary, categoryMap map[int64]string, userMap map[int64]string, fallbackUser string) error {
	m.logger.Info("migrating documents")

	var rows []legacyDocument
	err := m.source.SelectContext(ctx, &rows,
		`SELECT id, title, description, category_id, file, file_type, file_size, thumbnail, download_count,
		        is_active, requires_login, created_by_id, created_at, updated_at, published_date
		 FROM school_app_downloadabledocument ORDER BY id`)
	if err != nil {
		return fmt.Errorf("read legacy documents: %w", err)
	}

	for _, row := range rows {
		categoryID, ok := categoryMap[row.CategoryID.Int64]
		if !row.CategoryID.Valid || !ok {
			summary.SkippedDocuments++
			m.logger.Warn("skipping document: category not found",
				zap.String("title", row.Title), zap.Int64("legacy_category_id", row.CategoryID.Int64))
			continue
		}

		creator := m.resolveCreator(row.CreatedByID, userMap, fallbackUser)

		id := uuid.NewString()
		slugValue, err := slug.Generate(ctx, row.Title, id, m.documentSlugExists)
		if err != nil {
			return fmt.Errorf("derive slug for document %q: %w", row.Title, err)
		}

		active := true
		if row.IsActive.Valid {
			active = row.IsActive.Bool
		}
		requiresLogin := false
		if row.RequiresLogin.Valid {
			requiresLogin = row.RequiresLogin.Bool
		}

		_, err = m.target.ExecContext(ctx,
			`INSERT INTO documents (id, title, slug, description, category_id, file_path, file_type, file_size,
			                        thumbnail_path, download_count, is_active, requires_login, created_by, created_at, updated_at, published_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			id, row.Title, slugValue, row.Description.String, categoryID, row.FilePath.String,
			row.FileType.String, row.FileSize.String, row.Thumbnail.String, row.DownloadCount.Int64, active, requiresLogin,
			creator, row.CreatedAt, row.UpdatedAt, row.PublishedDate)
		if err != nil {
			return fmt.Errorf("insert document %q: %w", row.Title, err)
		}

		summary.Documents++
		m.logger.Info("migrated document", zap.String("title", row.Title), zap.String("slug", slugValue))
	}
	return nil
}

func (m *Importer) importNews(ctx context.Context, summary *Summary, userMap map[int64]string, fallbackUser string) error {
	m.logger.Info("migrating news")

	var rows []legacyNews
	err := m.source.SelectContext(ctx, &rows,
		`SELECT id, title, content, news_type, image, created_by_id, created_at, updated_at, is_published
		 FROM school_app_news ORDER BY id`)
	if err != nil {
		return fmt.Errorf("read legacy news: %w", err)
	}

	for _, row := range rows {
		creator := m.resolveCreator(row.CreatedByID, userMap, fallbackUser)

		id := uuid.NewString()
		slugValue, err := slug.Generate(ctx, row.Title, id, m.newsSlugExists)
		if err != nil {
			return fmt.Errorf("derive slug for news %q: %w", row.Title, err)
		}

		newsType := row.NewsType.String
		if newsType == "" {
			newsType = string(models.NewsGeneral)
		}
		published := true
		if row.IsPublished.Valid {
			published = row.IsPublished.Bool
		}

		_, err = m.target.ExecContext(ctx,
			`INSERT INTO news (id, title, slug, content, news_type, image_path, is_published, created_by, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			id, row.Title, slugValue, row.Content, newsType, row.Image.String, published,
			creator, row.CreatedAt, row.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert news %q: %w", row.Title, err)
		}

		summary.News++
		m.logger.Info("migrated news", zap.String("title", row.Title), zap.String("slug", slugValue))
	}
	return nil
}

// resolveCreator maps the legacy author to the migrated user, falling
// back to the first migrated user when the author is gone.
func (m *Importer) resolveCreator(legacyID sql.NullInt64, userMap map[int64]string, fallbackUser string) interface{} {
	if legacyID.Valid {
		if id, ok := userMap[legacyID.Int64]; ok {
			return id
		}
	}
	if fallbackUser != "" {
		return fallbackUser
	}
	return nil
}

func (m *Importer) categorySlugExists(ctx context.Context, candidate string) (bool, error) {
	return m.slugExists(ctx, "document_categories", candidate)
}

func (m *Importer) documentSlugExists(ctx context.Context, candidate string) (bool, error) {
	return m.slugExists(ctx, "documents", candidate)
}

func (m *Importer) newsSlugExists(ctx context.Context, candidate string) (bool, error) {
	return m.slugExists(ctx, "news", candidate)
}

func (m *Importer) slugExists(ctx context.Context, table, candidate string) (bool, error) {
	var exists bool
	err := m.target.GetContext(ctx, &exists,
		fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE slug = $1)", table), candidate)
	if err != nil {
		return false, err
	}
	return exists, nil
}
