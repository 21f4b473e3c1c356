package store

import (
	"database/sql"
	"fmt"
	"strings"

	"reality-portal/internal/models"

	"github.com/lib/pq"
)

type PostgresStore struct {
	conn *sql.DB
}

func NewPostgresStore(host string, port int, user, password, dbname, sslmode string) (*PostgresStore, error) {
	if sslmode == "" {
		sslmode = "disable"
	}
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &PostgresStore{conn: conn}, nil
}

func (s *PostgresStore) Close() error {
	return s.conn.Close()
}

// InitSchema creates the properties table and installs the two procedures
// the aggregators invoke: search_properties (trigram-ranked full-text) and
// nearby_properties (haversine distance, ascending).
func (s *PostgresStore) InitSchema() error {
	schema := `
	CREATE EXTENSION IF NOT EXISTS pg_trgm;

	CREATE TABLE IF NOT EXISTS properties (
		id VARCHAR(32) PRIMARY KEY,
		slug VARCHAR(255) NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',

		-- Filter fields
		price INTEGER NOT NULL DEFAULT 0,
		address TEXT NOT NULL DEFAULT '',
		city VARCHAR(100) NOT NULL DEFAULT '',
		bedrooms INTEGER,
		bathrooms INTEGER,
		area DECIMAL(10, 2),
		type VARCHAR(20) NOT NULL DEFAULT 'apartment',
		status VARCHAR(10) NOT NULL DEFAULT 'sale',

		lat DECIMAL(10, 7),
		lng DECIMAL(10, 7),

		images TEXT[] NOT NULL DEFAULT '{}',
		main_image TEXT NOT NULL DEFAULT '',
		features TEXT[] NOT NULL DEFAULT '{}',

		source_link VARCHAR(500) NOT NULL DEFAULT '',
		published_at TIMESTAMP,
		published BOOLEAN NOT NULL DEFAULT TRUE,

		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_properties_created_at ON properties(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_properties_price ON properties(price);
	CREATE INDEX IF NOT EXISTS idx_properties_city ON properties(city);
	CREATE INDEX IF NOT EXISTS idx_properties_type ON properties(type);
	CREATE INDEX IF NOT EXISTS idx_properties_search ON properties
		USING gin ((title || ' ' || coalesce(description, '') || ' ' || coalesce(city, '')) gin_trgm_ops);
	`
	if _, err := s.conn.Exec(schema); err != nil {
		return err
	}

	searchFn := `
	CREATE OR REPLACE FUNCTION search_properties(search_query TEXT)
	RETURNS SETOF properties AS $$
		SELECT *
		FROM properties
		WHERE published
		  AND (
			(title || ' ' || coalesce(description, '') || ' ' || coalesce(city, '')) ILIKE '%' || search_query || '%'
			OR similarity(title || ' ' || coalesce(city, ''), search_query) > 0.1
		  )
		ORDER BY similarity(title || ' ' || coalesce(description, '') || ' ' || coalesce(city, ''), search_query) DESC
		LIMIT 50
	$$ LANGUAGE sql STABLE;
	`
	if _, err := s.conn.Exec(searchFn); err != nil {
		return fmt.Errorf("failed to create search_properties: %w", err)
	}

	nearbyFn := `
	CREATE OR REPLACE FUNCTION nearby_properties(user_lat DOUBLE PRECISION, user_lng DOUBLE PRECISION, radius_km DOUBLE PRECISION)
	RETURNS TABLE (
		id VARCHAR(32), slug VARCHAR(255), title TEXT, description TEXT,
		price INTEGER, address TEXT, city VARCHAR(100),
		bedrooms INTEGER, bathrooms INTEGER, area DECIMAL(10, 2),
		type VARCHAR(20), status VARCHAR(10),
		lat DECIMAL(10, 7), lng DECIMAL(10, 7),
		images TEXT[], main_image TEXT, features TEXT[],
		source_link VARCHAR(500), published_at TIMESTAMP, published BOOLEAN,
		created_at TIMESTAMP, updated_at TIMESTAMP,
		distance_km DOUBLE PRECISION
	) AS $$
		SELECT ranked.id, ranked.slug, ranked.title, ranked.description,
			ranked.price, ranked.address, ranked.city,
			ranked.bedrooms, ranked.bathrooms, ranked.area,
			ranked.type, ranked.status, ranked.lat, ranked.lng,
			ranked.images, ranked.main_image, ranked.features,
			ranked.source_link, ranked.published_at, ranked.published,
			ranked.created_at, ranked.updated_at,
			ranked.dist AS distance_km
		FROM (
			SELECT p.*,
				6371 * acos(least(1.0,
					cos(radians(user_lat)) * cos(radians(p.lat::float8)) * cos(radians(p.lng::float8) - radians(user_lng))
					+ sin(radians(user_lat)) * sin(radians(p.lat::float8))
				)) AS dist
			FROM properties p
			WHERE p.published AND p.lat IS NOT NULL AND p.lng IS NOT NULL
		) ranked
		WHERE ranked.dist <= radius_km
		ORDER BY ranked.dist ASC
	$$ LANGUAGE sql STABLE;
	`
	if _, err := s.conn.Exec(nearbyFn); err != nil {
		return fmt.Errorf("failed to create nearby_properties: %w", err)
	}

	return nil
}

const propertyColumns = `id, slug, title, description, price, address, city,
	bedrooms, bathrooms, area, type, status, lat, lng,
	images, main_image, features, source_link, published_at, published,
	created_at, updated_at`

// UpsertBySlug inserts or overwrites the row matching the slug. All mutable
// fields are replaced; id and created_at are preserved on conflict.
func (s *PostgresStore) UpsertBySlug(p *models.Property) error {
	if err := prepare(p); err != nil {
		return err
	}

	query := `
	INSERT INTO properties (` + propertyColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW(), NOW())
	ON CONFLICT (slug) DO UPDATE SET
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		price = EXCLUDED.price,
		address = EXCLUDED.address,
		city = EXCLUDED.city,
		bedrooms = EXCLUDED.bedrooms,
		bathrooms = EXCLUDED.bathrooms,
		area = EXCLUDED.area,
		type = EXCLUDED.type,
		status = EXCLUDED.status,
		lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		images = EXCLUDED.images,
		main_image = EXCLUDED.main_image,
		features = EXCLUDED.features,
		source_link = EXCLUDED.source_link,
		published_at = EXCLUDED.published_at,
		published = EXCLUDED.published,
		updated_at = NOW()
	`
	_, err := s.conn.Exec(query,
		p.ID, p.Slug, p.Title, p.Description, p.Price, p.Address, p.City,
		p.Bedrooms, p.Bathrooms, p.Area, p.Type, p.Status, p.Lat, p.Lng,
		pq.Array(p.Images), p.MainImage, pq.Array(p.Features), p.SourceLink, p.PublishedAt, p.Published)
	return err
}

func (s *PostgresStore) CreateProperty(p *models.Property) error {
	if err := prepare(p); err != nil {
		return err
	}

	query := `
	INSERT INTO properties (` + propertyColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW(), NOW())
	`
	_, err := s.conn.Exec(query,
		p.ID, p.Slug, p.Title, p.Description, p.Price, p.Address, p.City,
		p.Bedrooms, p.Bathrooms, p.Area, p.Type, p.Status, p.Lat, p.Lng,
		pq.Array(p.Images), p.MainImage, pq.Array(p.Features), p.SourceLink, p.PublishedAt, p.Published)
	return err
}

func (s *PostgresStore) UpdateProperty(p *models.Property) error {
	if err := prepare(p); err != nil {
		return err
	}

	query := `
	UPDATE properties SET
		slug = $2, title = $3, description = $4, price = $5, address = $6, city = $7,
		bedrooms = $8, bathrooms = $9, area = $10, type = $11, status = $12,
		lat = $13, lng = $14, images = $15, main_image = $16, features = $17,
		source_link = $18, published_at = $19, published = $20, updated_at = NOW()
	WHERE id = $1
	`
	result, err := s.conn.Exec(query,
		p.ID, p.Slug, p.Title, p.Description, p.Price, p.Address, p.City,
		p.Bedrooms, p.Bathrooms, p.Area, p.Type, p.Status, p.Lat, p.Lng,
		pq.Array(p.Images), p.MainImage, pq.Array(p.Features), p.SourceLink, p.PublishedAt, p.Published)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteProperty(id string) error {
	result, err := s.conn.Exec(`DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) GetPropertyByID(id string) (*models.Property, error) {
	row := s.conn.QueryRow(`SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	return scanProperty(row)
}

func (s *PostgresStore) GetPropertyBySlug(slug string) (*models.Property, error) {
	row := s.conn.QueryRow(`SELECT `+propertyColumns+` FROM properties WHERE slug = $1`, slug)
	return scanProperty(row)
}

// ListProperties builds the structured filter predicate at the storage layer:
// range/equality/substring conditions, newest first, capped.
func (s *PostgresStore) ListProperties(filters models.SearchFilters, limit int) ([]models.Property, error) {
	if limit <= 0 {
		limit = searchResultLimit
	}

	conditions := []string{"published"}
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.MinPrice != nil {
		conditions = append(conditions, "price >= "+arg(*filters.MinPrice))
	}
	if filters.MaxPrice != nil {
		conditions = append(conditions, "price <= "+arg(*filters.MaxPrice))
	}
	if filters.MinBedrooms != nil {
		conditions = append(conditions, "bedrooms >= "+arg(*filters.MinBedrooms))
	}
	if filters.MinBathrooms != nil {
		conditions = append(conditions, "bathrooms >= "+arg(*filters.MinBathrooms))
	}
	if filters.Type != "" {
		conditions = append(conditions, "type = "+arg(string(filters.Type)))
	}
	if filters.City != "" {
		conditions = append(conditions, "city ILIKE "+arg("%"+filters.City+"%"))
	}

	query := `SELECT ` + propertyColumns + ` FROM properties WHERE ` +
		strings.Join(conditions, " AND ") +
		` ORDER BY created_at DESC LIMIT ` + arg(limit)

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProperties(rows)
}

func (s *PostgresStore) AllProperties() ([]models.Property, error) {
	rows, err := s.conn.Query(`SELECT ` + propertyColumns + ` FROM properties ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProperties(rows)
}

// SearchProperties invokes the ranked full-text procedure. Ranking happens
// inside the function; rows are returned in ranked order.
func (s *PostgresStore) SearchProperties(query string) ([]models.Property, error) {
	rows, err := s.conn.Query(`SELECT `+propertyColumns+` FROM search_properties($1)`, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProperties(rows)
}

// NearbyProperties invokes the geo-distance procedure; rows come back in
// ascending distance order and are not re-sorted here.
func (s *PostgresStore) NearbyProperties(lat, lng, radiusKm float64) ([]models.PropertyWithDistance, error) {
	rows, err := s.conn.Query(
		`SELECT `+propertyColumns+`, distance_km FROM nearby_properties($1, $2, $3)`,
		lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.PropertyWithDistance
	for rows.Next() {
		var pd models.PropertyWithDistance
		if err := scanPropertyInto(rows, &pd.Property, &pd.DistanceKm); err != nil {
			return nil, err
		}
		results = append(results, pd)
	}
	return results, rows.Err()
}

func (s *PostgresStore) DistinctCities(substring string, limit int) ([]string, error) {
	return s.distinctColumn("city", substring, limit)
}

func (s *PostgresStore) DistinctPropertyTypes(substring string, limit int) ([]string, error) {
	return s.distinctColumn("type", substring, limit)
}

func (s *PostgresStore) distinctColumn(column, substring string, limit int) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT %s FROM properties
		WHERE published AND %s <> '' AND %s ILIKE $1
		ORDER BY %s ASC
		LIMIT $2`, column, column, column, column)

	rows, err := s.conn.Query(query, "%"+substring+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (s *PostgresStore) CountByPublished() (int64, int64, error) {
	var published, unpublished int64
	err := s.conn.QueryRow(`
		SELECT count(*) FILTER (WHERE published), count(*) FILTER (WHERE NOT published)
		FROM properties`).Scan(&published, &unpublished)
	return published, unpublished, err
}

func (s *PostgresStore) CountByType() (map[string]int64, error) {
	rows, err := s.conn.Query(`SELECT type, count(*) FROM properties GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var propType sql.NullString
		var count int64
		if err := rows.Scan(&propType, &count); err != nil {
			return nil, err
		}
		counts[propType.String] = count
	}
	return counts, rows.Err()
}

func (s *PostgresStore) CountPriceBetween(minPrice, maxPrice int) (int64, error) {
	var count int64
	err := s.conn.QueryRow(
		`SELECT count(*) FROM properties WHERE published AND price >= $1 AND price < $2`,
		minPrice, maxPrice).Scan(&count)
	return count, err
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProperty(row scanner) (*models.Property, error) {
	var p models.Property
	if err := scanPropertyInto(row, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPropertyInto(row scanner, p *models.Property, extra ...interface{}) error {
	var images, features pq.StringArray
	dest := []interface{}{
		&p.ID, &p.Slug, &p.Title, &p.Description, &p.Price, &p.Address, &p.City,
		&p.Bedrooms, &p.Bathrooms, &p.Area, &p.Type, &p.Status, &p.Lat, &p.Lng,
		&images, &p.MainImage, &features, &p.SourceLink, &p.PublishedAt, &p.Published,
		&p.CreatedAt, &p.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	p.Images = models.StringList(images)
	p.Features = models.StringList(features)
	return nil
}

func scanProperties(rows *sql.Rows) ([]models.Property, error) {
	var properties []models.Property
	for rows.Next() {
		var p models.Property
		if err := scanPropertyInto(rows, &p); err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}
