package models

import "time"

type Property struct {
	// Identity
	ID   string `gorm:"type:varchar(32);primaryKey" json:"id"`
	Slug string `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`

	Title       string `gorm:"type:text;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Filter attributes
	Price     int          `gorm:"type:int;not null;index" json:"price"`
	Address   string       `gorm:"type:text" json:"address,omitempty"`
	City      string       `gorm:"type:varchar(100);index" json:"city,omitempty"`
	Bedrooms  *int         `gorm:"type:int;index" json:"bedrooms,omitempty"`
	Bathrooms *int         `gorm:"type:int" json:"bathrooms,omitempty"`
	Area      *float64     `gorm:"type:decimal(10,2)" json:"area,omitempty"`
	Type      PropertyType `gorm:"type:varchar(20);index" json:"type"`
	Status    DealStatus   `gorm:"type:varchar(10);not null;default:'sale';index" json:"status"`

	// Location
	Lat *float64 `gorm:"type:decimal(10,7)" json:"lat,omitempty"`
	Lng *float64 `gorm:"type:decimal(10,7)" json:"lng,omitempty"`

	// Media
	Images    StringList `gorm:"type:text;serializer:json" json:"images"`
	MainImage string     `gorm:"type:text" json:"main_image,omitempty"`
	Features  StringList `gorm:"type:text;serializer:json" json:"features"`

	// Provenance
	SourceLink  string     `gorm:"type:varchar(500)" json:"source_link,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	Published bool `gorm:"not null;default:true;index" json:"published"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index:idx_created_at,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// StringList is stored as a JSON document in MySQL and as text[] in Postgres.
type StringList []string

// PropertyType is the offer category (mapped from the feed category parameter,
// never inferred from free text).
type PropertyType string

const (
	TypeApartment  PropertyType = "apartment"
	TypeHouse      PropertyType = "house"
	TypeLand       PropertyType = "land"
	TypeCommercial PropertyType = "commercial"
)

// DealStatus distinguishes sale and rental offers.
type DealStatus string

const (
	StatusSale DealStatus = "sale"
	StatusRent DealStatus = "rent"
)

// TableName pins the table name regardless of gorm pluralization rules.
func (Property) TableName() string {
	return "properties"
}

// PropertyWithDistance is the row shape returned by the nearby procedure.
// Distance is computed server-side and is not re-sorted by callers.
type PropertyWithDistance struct {
	Property   `gorm:"embedded"`
	DistanceKm float64 `json:"distance_km"`
}
