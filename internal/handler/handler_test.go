package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace-catalog/internal/handler"
	"marketplace-catalog/internal/repository"
	"marketplace-catalog/internal/service"
	"marketplace-catalog/internal/testutil"
	"marketplace-catalog/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	app     *fiber.App
	catalog *testutil.Catalog
	tokens  *jwt.Manager
	seller  string
	admin   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewDB(t)
	catalog := testutil.SeedCatalog(t, db)
	store := testutil.NewMemoryStore()

	skuGen, err := service.NewSKUGenerator()
	require.NoError(t, err)

	attributeRepo := repository.NewAttributeRepo(db)
	catalogService := service.NewCatalogService(attributeRepo, db, testutil.NewMemoryCache(), nil, 0)
	values := service.NewAttributeValueService(attributeRepo, repository.NewAttributeValueRepo(db), db)
	productService := service.NewProductService(repository.NewProductRepo(db), attributeRepo, values, store, db, nil, nil, skuGen)

	tokens := jwt.NewManager("test-secret", time.Hour)
	app := fiber.New()
	handler.Register(app, handler.Handlers{
		Attributes: handler.NewAttributeHandler(catalogService),
		Products:   handler.NewProductHandler(productService),
		Admin:      handler.NewCatalogAdminHandler(catalogService),
		Images:     handler.NewImageHandler(store),
	}, tokens)

	seller, err := tokens.GenerateToken(uuid.New(), uuid.New(), "Ana", jwt.RoleSeller)
	require.NoError(t, err)
	admin, err := tokens.GenerateToken(uuid.New(), uuid.Nil, "Root", jwt.RoleAdmin)
	require.NoError(t, err)

	return &testServer{app: app, catalog: catalog, tokens: tokens, seller: seller, admin: admin}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestGetCategoryAttributes(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodGet, fmt.Sprintf("/api/attributes/category/%d", s.catalog.Fashion.ID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	var sets service.CategoryAttributeSets
	require.NoError(t, json.Unmarshal(env.Data, &sets))
	assert.Len(t, sets.Attributes, 3)
	require.Len(t, sets.VariantAttributes, 2)
	assert.Equal(t, "color", sets.VariantAttributes[0].Slug)
	require.Len(t, sets.SpecificationAttributes, 1)
	assert.Equal(t, "material", sets.SpecificationAttributes[0].Slug)

	status, env = s.do(t, http.MethodGet, "/api/attributes/category/4242", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &sets))
	assert.Empty(t, sets.Attributes)
	assert.NotNil(t, sets.VariantAttributes)

	status, env = s.do(t, http.MethodGet, "/api/attributes/category/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
}

func TestGenerateVariants(t *testing.T) {
	s := newTestServer(t)
	c := s.catalog

	body := fmt.Sprintf(`{"variant_attributes": {"%d": [%d, %d], "%d": ["%d"]}}`, c.Size.ID, c.M.ID, c.L.ID, c.Color.ID, c.Red.ID)
	status, env := s.do(t, http.MethodPost, "/api/attributes/generate-variants", "", body)
	require.Equal(t, http.StatusOK, status, env.Error)

	var data struct {
		Count        int `json:"count"`
		Combinations []struct {
			DisplayName string `json:"display_name"`
			Attributes  map[string]struct {
				AttributeSlug string `json:"attribute_slug"`
				OptionID      uint   `json:"option_id"`
				Label         string `json:"label"`
			} `json:"attributes"`
		} `json:"combinations"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 2, data.Count)
	require.Len(t, data.Combinations, 2)
	assert.Equal(t, "M / Red", data.Combinations[0].DisplayName)
	assert.Equal(t, "L / Red", data.Combinations[1].DisplayName)
	assert.Equal(t, c.Red.ID, data.Combinations[0].Attributes[fmt.Sprint(c.Color.ID)].OptionID)

	for _, bad := range []string{`{}`, `{"variant_attributes": {}}`, `{"variant_attributes": [1]}`, `not json`} {
		status, env = s.do(t, http.MethodPost, "/api/attributes/generate-variants", "", bad)
		assert.Equal(t, http.StatusBadRequest, status, bad)
		assert.False(t, env.Success)
	}
}

func TestProductRoutesRequireSeller(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/api/products/", "", map[string]interface{}{})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Missing authorization token", env.Error)

	status, _ = s.do(t, http.MethodPost, "/api/products/", "not-a-token", map[string]interface{}{})
	assert.Equal(t, http.StatusUnauthorized, status)

	other := jwt.NewManager("other-secret", time.Hour)
	forged, err := other.GenerateToken(uuid.New(), uuid.New(), "Eve", jwt.RoleSeller)
	require.NoError(t, err)
	status, _ = s.do(t, http.MethodPost, "/api/products/", forged, map[string]interface{}{})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPost, "/api/products/", s.admin, map[string]interface{}{})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodPost, "/api/admin/categories", s.seller, map[string]interface{}{"name": "Shoes"})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestProductLifecycle(t *testing.T) {
	s := newTestServer(t)
	c := s.catalog

	create := map[string]interface{}{
		"product_name": "Linen Shirt",
		"category_id":  c.Fashion.ID,
		"base_price":   "1.234.567đ",
		"attributes":   map[string]interface{}{fmt.Sprint(c.Material.ID): "Linen"},
		"images":       []map[string]interface{}{{"filename": "front.png", "data": testutil.PNG}},
		"variants": []map[string]interface{}{
			{
				"stock_quantity": 2,
				"attributes": map[string]interface{}{
					fmt.Sprint(c.Color.ID): map[string]interface{}{"option_id": c.Red.ID},
					fmt.Sprint(c.Size.ID):  map[string]interface{}{"option_id": c.M.ID},
				},
			},
		},
	}
	status, env := s.do(t, http.MethodPost, "/api/products/", s.seller, create)
	require.Equal(t, http.StatusCreated, status, env.Error)

	var product struct {
		ID        uuid.UUID `json:"id"`
		Slug      string    `json:"slug"`
		BasePrice int64     `json:"base_price"`
		Status    string    `json:"status"`
		Images    []struct {
			Path string `json:"path"`
			URL  string `json:"url"`
		} `json:"images"`
		Variants []struct {
			ID   uuid.UUID `json:"id"`
			Name string    `json:"name"`
		} `json:"variants"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &product))
	assert.Equal(t, "linen-shirt", product.Slug)
	assert.Equal(t, int64(1234567), product.BasePrice)
	assert.Equal(t, "draft", product.Status)
	require.Len(t, product.Variants, 1)
	assert.Equal(t, "Red / M", product.Variants[0].Name)
	require.Len(t, product.Images, 1)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, product.Images[0].URL, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	resp.Body.Close()

	path := "/api/products/" + product.ID.String()

	status, env = s.do(t, http.MethodPost, path+"/variants/check", s.seller, map[string]interface{}{
		"combination": map[string]uint{fmt.Sprint(c.Color.ID): c.Red.ID, fmt.Sprint(c.Size.ID): c.M.ID},
	})
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.JSONEq(t, `{"exists": true}`, string(env.Data))

	status, env = s.do(t, http.MethodPatch, path, s.seller, map[string]interface{}{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "product_status")

	status, env = s.do(t, http.MethodPatch, path, s.seller, map[string]interface{}{
		"status": "active",
		"variants": []map[string]interface{}{
			{"id": product.Variants[0].ID, "stock_quantity": 7},
			{
				"attributes": map[string]interface{}{
					fmt.Sprint(c.Color.ID): map[string]interface{}{"option_id": c.Red.ID},
					fmt.Sprint(c.Size.ID):  map[string]interface{}{"option_id": c.M.ID},
				},
			},
		},
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, env.Success)

	status, env = s.do(t, http.MethodPatch, path, s.seller, map[string]interface{}{"status": "active"})
	require.Equal(t, http.StatusOK, status, env.Error)

	stranger, err := s.tokens.GenerateToken(uuid.New(), uuid.New(), "Bob", jwt.RoleSeller)
	require.NoError(t, err)
	status, _ = s.do(t, http.MethodGet, path, stranger, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodDelete, path, s.seller, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, path, s.seller, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, service.ErrProductNotFound.Error(), env.Error)

	status, _ = s.do(t, http.MethodGet, product.Images[0].URL, "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodGet, "/api/products/not-a-uuid", s.seller, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreateProductValidation(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/api/products/", s.seller, map[string]interface{}{"category_id": s.catalog.Fashion.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "Name")

	status, _ = s.do(t, http.MethodPost, "/api/products/", s.seller, map[string]interface{}{"product_name": "Tee", "category_id": 9999})
	assert.Equal(t, http.StatusNotFound, status)

	status, env = s.do(t, http.MethodPost, "/api/products/", s.seller, map[string]interface{}{
		"product_name": "Tee",
		"category_id":  s.catalog.Fashion.ID,
		"images":       []map[string]interface{}{{"filename": "a.txt", "data": []byte("hello")}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, service.ErrInvalidImage.Error())
}

func TestAdminCatalogRoutes(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/api/admin/categories", s.admin, map[string]interface{}{"name": "Phones"})
	require.Equal(t, http.StatusCreated, status, env.Error)
	var category struct {
		ID   uint   `json:"id"`
		Slug string `json:"slug"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &category))
	assert.Equal(t, "phones", category.Slug)

	status, env = s.do(t, http.MethodPost, "/api/admin/attributes", s.admin, map[string]interface{}{
		"name":    "Storage",
		"options": []map[string]interface{}{{"value": "64GB"}, {"value": "128GB"}},
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	var attribute struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &attribute))

	status, _ = s.do(t, http.MethodPost, "/api/admin/attributes", s.admin, map[string]interface{}{"name": "Storage"})
	assert.Equal(t, http.StatusConflict, status)

	status, env = s.do(t, http.MethodPost, "/api/admin/attributes", s.admin, map[string]interface{}{"name": "Weight", "input_type": "slider"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "input_type")

	status, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/admin/attributes/%d/options", attribute.ID), s.admin, map[string]interface{}{"value": "256GB"})
	assert.Equal(t, http.StatusCreated, status)

	status, env = s.do(t, http.MethodPost, fmt.Sprintf("/api/admin/categories/%d/attributes", category.ID), s.admin, map[string]interface{}{
		"attribute_id": attribute.ID,
		"is_variant":   true,
	})
	require.Equal(t, http.StatusOK, status, env.Error)
	var attrs []struct {
		Slug      string        `json:"slug"`
		IsVariant bool          `json:"is_variant"`
		Options   []interface{} `json:"options"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &attrs))
	require.Len(t, attrs, 1)
	assert.True(t, attrs[0].IsVariant)
	assert.Len(t, attrs[0].Options, 3)

	status, _ = s.do(t, http.MethodPost, "/api/admin/categories/999/attributes", s.admin, map[string]interface{}{"attribute_id": attribute.ID})
	assert.Equal(t, http.StatusNotFound, status)
}
