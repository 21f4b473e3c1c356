package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"reality-portal/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MySQLStore is the GORM-backed alternate backend. It implements the same
// contract as PostgresStore: full-text ranking through MATCH..AGAINST and the
// nearby procedure through an inline haversine expression.
type MySQLStore struct {
	db *gorm.DB
}

func NewMySQLStore(host string, port int, user, password, dbname string) (*MySQLStore, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &MySQLStore{db: db}, nil
}

// DB returns the underlying gorm.DB instance
func (s *MySQLStore) DB() *gorm.DB {
	return s.db
}

func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate plus the full-text index
// MATCH..AGAINST requires.
func (s *MySQLStore) InitSchema() error {
	if err := s.db.AutoMigrate(&models.Property{}); err != nil {
		return err
	}

	// AutoMigrate cannot express FULLTEXT indexes; MySQL has no
	// CREATE INDEX IF NOT EXISTS, so an already-exists error is tolerated.
	err := s.db.Exec(`CREATE FULLTEXT INDEX idx_properties_fulltext ON properties(title, description, city)`).Error
	if err != nil && !strings.Contains(err.Error(), "Duplicate") {
		return err
	}
	return nil
}

func (s *MySQLStore) UpsertBySlug(p *models.Property) error {
	if err := prepare(p); err != nil {
		return err
	}

	var existing models.Property
	result := s.db.Where("slug = ?", p.Slug).First(&existing)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return s.db.Create(p).Error
	} else if result.Error != nil {
		return result.Error
	}

	// Overwrite all mutable fields, keep identity and creation time.
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	return s.db.Save(p).Error
}

func (s *MySQLStore) CreateProperty(p *models.Property) error {
	if err := prepare(p); err != nil {
		return err
	}
	return s.db.Create(p).Error
}

// UpdateProperty overwrites the row by id. Existence is checked with a read,
// not RowsAffected: the driver reports changed rows, so resubmitting
// identical values would look like a missing row.
func (s *MySQLStore) UpdateProperty(p *models.Property) error {
	if err := prepare(p); err != nil {
		return err
	}

	var existing models.Property
	if err := s.db.Where("id = ?", p.ID).First(&existing).Error; err != nil {
		return err
	}

	p.CreatedAt = existing.CreatedAt
	return s.db.Save(p).Error
}

func (s *MySQLStore) DeleteProperty(id string) error {
	result := s.db.Where("id = ?", id).Delete(&models.Property{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *MySQLStore) GetPropertyByID(id string) (*models.Property, error) {
	var property models.Property
	if err := s.db.Where("id = ?", id).First(&property).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

func (s *MySQLStore) GetPropertyBySlug(slug string) (*models.Property, error) {
	var property models.Property
	if err := s.db.Where("slug = ?", slug).First(&property).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

func (s *MySQLStore) ListProperties(filters models.SearchFilters, limit int) ([]models.Property, error) {
	if limit <= 0 {
		limit = searchResultLimit
	}

	query := s.db.Where("published = ?", true)
	if filters.MinPrice != nil {
		query = query.Where("price >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		query = query.Where("price <= ?", *filters.MaxPrice)
	}
	if filters.MinBedrooms != nil {
		query = query.Where("bedrooms >= ?", *filters.MinBedrooms)
	}
	if filters.MinBathrooms != nil {
		query = query.Where("bathrooms >= ?", *filters.MinBathrooms)
	}
	if filters.Type != "" {
		query = query.Where("type = ?", string(filters.Type))
	}
	if filters.City != "" {
		query = query.Where("city LIKE ?", "%"+filters.City+"%")
	}

	var properties []models.Property
	err := query.Order("created_at DESC").Limit(limit).Find(&properties).Error
	return properties, err
}

func (s *MySQLStore) AllProperties() ([]models.Property, error) {
	var properties []models.Property
	err := s.db.Order("created_at DESC").Find(&properties).Error
	return properties, err
}

func (s *MySQLStore) SearchProperties(query string) ([]models.Property, error) {
	var properties []models.Property
	err := s.db.Raw(`
		SELECT * FROM properties
		WHERE published = 1
		  AND MATCH(title, description, city) AGAINST (? IN NATURAL LANGUAGE MODE)
		ORDER BY MATCH(title, description, city) AGAINST (? IN NATURAL LANGUAGE MODE) DESC
		LIMIT ?`, query, query, searchResultLimit).Scan(&properties).Error
	return properties, err
}

func (s *MySQLStore) NearbyProperties(lat, lng, radiusKm float64) ([]models.PropertyWithDistance, error) {
	var results []models.PropertyWithDistance
	err := s.db.Raw(`
		SELECT ranked.*, ranked.dist AS distance_km
		FROM (
			SELECT p.*,
				6371 * ACOS(LEAST(1.0,
					COS(RADIANS(?)) * COS(RADIANS(p.lat)) * COS(RADIANS(p.lng) - RADIANS(?))
					+ SIN(RADIANS(?)) * SIN(RADIANS(p.lat))
				)) AS dist
			FROM properties p
			WHERE p.published = 1 AND p.lat IS NOT NULL AND p.lng IS NOT NULL
		) ranked
		WHERE ranked.dist <= ?
		ORDER BY ranked.dist ASC`, lat, lng, lat, radiusKm).Scan(&results).Error
	return results, err
}

func (s *MySQLStore) DistinctCities(substring string, limit int) ([]string, error) {
	return s.distinctColumn("city", substring, limit)
}

func (s *MySQLStore) DistinctPropertyTypes(substring string, limit int) ([]string, error) {
	return s.distinctColumn("type", substring, limit)
}

func (s *MySQLStore) distinctColumn(column, substring string, limit int) ([]string, error) {
	var values []string
	err := s.db.Model(&models.Property{}).
		Distinct(column).
		Where("published = ?", true).
		Where(column+" <> ''").
		Where(column+" LIKE ?", "%"+substring+"%").
		Order(column+" ASC").
		Limit(limit).
		Pluck(column, &values).Error
	return values, err
}

func (s *MySQLStore) CountByPublished() (int64, int64, error) {
	var published, unpublished int64
	if err := s.db.Model(&models.Property{}).Where("published = ?", true).Count(&published).Error; err != nil {
		return 0, 0, err
	}
	if err := s.db.Model(&models.Property{}).Where("published = ?", false).Count(&unpublished).Error; err != nil {
		return 0, 0, err
	}
	return published, unpublished, nil
}

func (s *MySQLStore) CountByType() (map[string]int64, error) {
	type typeCount struct {
		Type  string
		Count int64
	}

	var rows []typeCount
	err := s.db.Model(&models.Property{}).
		Select("type, count(*) as count").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}

func (s *MySQLStore) CountPriceBetween(minPrice, maxPrice int) (int64, error) {
	var count int64
	err := s.db.Model(&models.Property{}).
		Where("published = ? AND price >= ? AND price < ?", true, minPrice, maxPrice).
		Count(&count).Error
	return count, err
}
