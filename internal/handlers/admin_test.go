package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reality-portal/internal/models"

	"github.com/gin-gonic/gin"
)

// memStore is an in-memory store.Store for handler tests.
type memStore struct {
	byID map[string]*models.Property
}

func newMemStore(props ...*models.Property) *memStore {
	m := &memStore{byID: make(map[string]*models.Property)}
	for _, p := range props {
		m.byID[p.ID] = p
	}
	return m
}

func (m *memStore) InitSchema() error { return nil }
func (m *memStore) Close() error      { return nil }

func (m *memStore) UpsertBySlug(p *models.Property) error {
	m.byID[p.ID] = p
	return nil
}

func (m *memStore) CreateProperty(p *models.Property) error {
	if p.ID == "" {
		p.ID = p.Slug
	}
	m.byID[p.ID] = p
	return nil
}

func (m *memStore) UpdateProperty(p *models.Property) error {
	if _, ok := m.byID[p.ID]; !ok {
		return sql.ErrNoRows
	}
	m.byID[p.ID] = p
	return nil
}

func (m *memStore) DeleteProperty(id string) error {
	if _, ok := m.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

func (m *memStore) GetPropertyByID(id string) (*models.Property, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (m *memStore) GetPropertyBySlug(slug string) (*models.Property, error) {
	for _, p := range m.byID {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) ListProperties(filters models.SearchFilters, limit int) ([]models.Property, error) {
	return m.AllProperties()
}

func (m *memStore) AllProperties() ([]models.Property, error) {
	var out []models.Property
	for _, p := range m.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memStore) SearchProperties(query string) ([]models.Property, error) {
	return m.AllProperties()
}

func (m *memStore) NearbyProperties(lat, lng, radiusKm float64) ([]models.PropertyWithDistance, error) {
	return nil, nil
}

func (m *memStore) DistinctCities(substring string, limit int) ([]string, error) {
	return nil, nil
}

func (m *memStore) DistinctPropertyTypes(substring string, limit int) ([]string, error) {
	return nil, nil
}

func (m *memStore) CountByPublished() (int64, int64, error) {
	return int64(len(m.byID)), 0, nil
}

func (m *memStore) CountByType() (map[string]int64, error) { return map[string]int64{}, nil }

func (m *memStore) CountPriceBetween(minPrice, maxPrice int) (int64, error) { return 0, nil }

func newAdminRouter(st *memStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAdminHandler(st, nil)

	r := gin.New()
	r.POST("/api/admin/properties", h.CreateProperty)
	r.PUT("/api/admin/properties/:id", h.UpdateProperty)
	r.DELETE("/api/admin/properties/:id", h.DeleteProperty)
	return r
}

func adminRequest(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreatePropertyDerivesSlug(t *testing.T) {
	st := newMemStore()
	router := newAdminRouter(st)

	w := adminRequest(t, router, "POST", "/api/admin/properties",
		`{"title":"Byt v Přerově","price":2000000}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var created models.Property
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Slug != "byt-v-prerove" {
		t.Errorf("Slug = %q, want %q", created.Slug, "byt-v-prerove")
	}
	if !created.Published {
		t.Error("Published = false, want true")
	}
}

func TestUpdatePropertyIdenticalResubmission(t *testing.T) {
	existing := &models.Property{
		ID: "p1", Slug: "byt-brno-1", Title: "Byt, Brno", Price: 3000000,
		Type: models.TypeApartment, Status: models.StatusSale, Published: true,
	}
	st := newMemStore(existing)
	router := newAdminRouter(st)

	body := `{"title":"Byt, Brno","price":3000000,"type":"apartment","status":"sale","published":true}`

	// Resubmitting unchanged values must succeed, not read as a missing row.
	for i := 0; i < 2; i++ {
		w := adminRequest(t, router, "PUT", "/api/admin/properties/p1", body)
		if w.Code != http.StatusOK {
			t.Fatalf("update %d: status = %d, body = %s", i+1, w.Code, w.Body.String())
		}
	}
}

func TestUpdatePropertySlugImmutable(t *testing.T) {
	existing := &models.Property{ID: "p1", Slug: "byt-brno-1", Title: "Byt, Brno", Price: 1}
	st := newMemStore(existing)
	router := newAdminRouter(st)

	w := adminRequest(t, router, "PUT", "/api/admin/properties/p1",
		`{"title":"Nový titulek","slug":"jiny-slug","price":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	updated := st.byID["p1"]
	if updated.Slug != "byt-brno-1" {
		t.Errorf("Slug = %q, want immutable %q", updated.Slug, "byt-brno-1")
	}
	if updated.Title != "Nový titulek" {
		t.Errorf("Title = %q, want updated", updated.Title)
	}
}

func TestUpdatePropertyMissing(t *testing.T) {
	router := newAdminRouter(newMemStore())

	w := adminRequest(t, router, "PUT", "/api/admin/properties/nope", `{"title":"X"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeletePropertyMissing(t *testing.T) {
	router := newAdminRouter(newMemStore())

	w := adminRequest(t, router, "DELETE", "/api/admin/properties/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
