package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt_back_end/internal/database"
	"foodcourt_back_end/internal/middleware"
	"foodcourt_back_end/internal/routes"
	"foodcourt_back_end/internal/storage/memory"
)

// newTestServer monte l'API complète sur le backend mémoire,
// sans Redis, Elastic ni MinIO.
func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database.Store = memory.New()
	database.Redis = nil
	database.Elastic = nil
	database.MinIO = nil
	middleware.InitSessionStore("secret-de-test")

	r := gin.New()
	routes.RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := map[string]any{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "application/pdf" {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func registerUser(t *testing.T, r *gin.Engine, name, email string) string {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "motdepasse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token, _ := resp["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func registerAdmin(t *testing.T, r *gin.Engine) string {
	t.Helper()
	t.Setenv("ADMIN_EMAIL", "chef@foodcourt.be")
	return registerUser(t, r, "Chef", "chef@foodcourt.be")
}

func createMenuItem(t *testing.T, r *gin.Engine, adminToken string, body gin.H) int64 {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/admin/menu", adminToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	item := resp["item"].(map[string]any)
	return int64(item["id"].(float64))
}

func TestRegisterAndLogin(t *testing.T) {
	r := newTestServer(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "Alice",
		"email":    "Alice@Example.com",
		"password": "motdepasse",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	user := resp["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, false, user["is_admin"])

	// Même email (casse différente) → conflit
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "Alice bis",
		"email":    "ALICE@example.com",
		"password": "motdepasse",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Mauvais mot de passe
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "mauvais-mdp",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Login OK → token utilisable sur /me
	w, resp = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "motdepasse",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token := resp["token"].(string)

	w, resp = doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice@example.com", resp["user"].(map[string]any)["email"])
}

func TestRegisterValidation(t *testing.T) {
	r := newTestServer(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Sans arobase", "email": "pas-un-email", "password": "motdepasse",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Trop court", "email": "bob@example.com", "password": "court",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthRequired(t *testing.T) {
	r := newTestServer(t)

	for _, path := range []string{"/api/auth/me", "/api/cart", "/api/orders"} {
		w, _ := doJSON(t, r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w, _ := doJSON(t, r, http.MethodGet, "/api/auth/me", "pas-un-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAccess(t *testing.T) {
	r := newTestServer(t)
	userToken := registerUser(t, r, "Client", "client@example.com")

	w, _ := doJSON(t, r, http.MethodPost, "/api/admin/menu", userToken, gin.H{
		"name": "Frites", "price": 3.5,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMenuEndpoints(t *testing.T) {
	r := newTestServer(t)
	adminToken := registerAdmin(t, r)

	burgerID := createMenuItem(t, r, adminToken, gin.H{
		"name": "Burger maison", "description": "Steak belge, sauce secrète",
		"price": 12.5, "category": "plats",
	})
	createMenuItem(t, r, adminToken, gin.H{
		"name": "Dame blanche", "price": 6.0, "category": "desserts",
	})
	createMenuItem(t, r, adminToken, gin.H{
		"name": "Plat du jour (épuisé)", "price": 9.0, "category": "plats", "available": false,
	})

	// La liste publique cache les plats indisponibles
	w, resp := doJSON(t, r, http.MethodGet, "/api/menu", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["items"], 2)

	w, resp = doJSON(t, r, http.MethodGet, "/api/menu?category=desserts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := resp["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Dame blanche", items[0].(map[string]any)["name"])

	// Tri par prix croissant
	w, resp = doJSON(t, r, http.MethodGet, "/api/menu?sort=price", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items = resp["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "Dame blanche", items[0].(map[string]any)["name"])

	w, resp = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/menu/%d", burgerID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Burger maison", resp["item"].(map[string]any)["name"])
	assert.Equal(t, 0.0, resp["rating"])

	w, _ = doJSON(t, r, http.MethodGet, "/api/menu/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Recherche sans Elastic → repli sur le stockage
	w, resp = doJSON(t, r, http.MethodGet, "/api/menu/search?q=burger", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["results"], 1)

	w, _ = doJSON(t, r, http.MethodGet, "/api/menu/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateMenuItem(t *testing.T) {
	r := newTestServer(t)
	adminToken := registerAdmin(t, r)
	itemID := createMenuItem(t, r, adminToken, gin.H{"name": "Carbonnade", "price": 14.0})

	userToken := registerUser(t, r, "Gourmand", "gourmand@example.com")
	path := fmt.Sprintf("/api/menu/%d/rate", itemID)

	w, _ := doJSON(t, r, http.MethodPost, path, "", gin.H{"stars": 5})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, path, userToken, gin.H{"stars": 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := doJSON(t, r, http.MethodPost, path, userToken, gin.H{"stars": 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5.0, resp["rating"])

	w, resp = doJSON(t, r, http.MethodPost, path, userToken, gin.H{"stars": 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4.0, resp["rating"])
}

func TestCartFlow(t *testing.T) {
	r := newTestServer(t)
	adminToken := registerAdmin(t, r)
	fritesID := createMenuItem(t, r, adminToken, gin.H{"name": "Frites", "price": 3.5})
	boissonID := createMenuItem(t, r, adminToken, gin.H{"name": "Limonade", "price": 2.0})

	token := registerUser(t, r, "Client", "client@example.com")

	// Plat inconnu
	w, _ := doJSON(t, r, http.MethodPost, "/api/cart", token, gin.H{"menu_item_id": 9999, "quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/cart", token, gin.H{"menu_item_id": fritesID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := doJSON(t, r, http.MethodPost, "/api/cart", token, gin.H{"menu_item_id": fritesID, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["items"], 1)
	assert.Equal(t, 7.0, resp["total"])

	// Le même plat s'additionne sur une seule ligne
	w, resp = doJSON(t, r, http.MethodPost, "/api/cart", token, gin.H{"menu_item_id": fritesID, "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)
	items := resp["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, 3.0, items[0].(map[string]any)["quantity"])

	w, resp = doJSON(t, r, http.MethodPost, "/api/cart", token, gin.H{"menu_item_id": boissonID, "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["items"], 2)
	assert.Equal(t, 12.5, resp["total"])

	// PUT pose une quantité absolue
	w, resp = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/cart/items/%d", fritesID), token, gin.H{"quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5.5, resp["total"])

	w, resp = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/cart/items/%d", boissonID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["items"], 1)

	w, _ = doJSON(t, r, http.MethodDelete, "/api/cart/clear", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = doJSON(t, r, http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp["items"])
}

func TestCheckoutFlow(t *testing.T) {
	r := newTestServer(t)
	adminToken := registerAdmin(t, r)
	fritesID := createMenuItem(t, r, adminToken, gin.H{"name": "Frites", "price": 3.5})

	token := registerUser(t, r, "Client", "client@example.com")

	// Panier vide
	w, _ := doJSON(t, r, http.MethodPost, "/api/orders", token, gin.H{"address": "Rue du Marché 1, Bruxelles"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/cart", token, gin.H{"menu_item_id": fritesID, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)

	// Adresse manquante
	w, _ = doJSON(t, r, http.MethodPost, "/api/orders", token, gin.H{"address": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := doJSON(t, r, http.MethodPost, "/api/orders", token, gin.H{"address": "Rue du Marché 1, Bruxelles"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := resp["order"].(map[string]any)
	assert.Equal(t, "pending", order["status"])
	assert.Equal(t, 7.0, order["total"])
	assert.NotEmpty(t, order["reference"])
	orderItems := order["items"].([]any)
	require.Len(t, orderItems, 1)
	assert.Equal(t, "Frites", orderItems[0].(map[string]any)["name"])
	assert.Equal(t, 3.5, orderItems[0].(map[string]any)["price"])
	orderID := int64(order["id"].(float64))

	// Le panier est vidé après la commande
	w, resp = doJSON(t, r, http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp["items"])

	// La popularité du plat a été incrémentée
	w, resp = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/menu/%d", fritesID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, resp["item"].(map[string]any)["popularity"])

	w, resp = doJSON(t, r, http.MethodGet, "/api/orders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["orders"], 1)

	// Un autre client ne voit pas cette commande
	otherToken := registerUser(t, r, "Curieux", "curieux@example.com")
	w, _ = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// L'admin, si
	w, _ = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOrderStatusLifecycle(t *testing.T) {
	r := newTestServer(t)
	adminToken := registerAdmin(t, r)
	itemID := createMenuItem(t, r, adminToken, gin.H{"name": "Pita", "price": 6.5})

	token := registerUser(t, r, "Client", "client@example.com")
	w, _ := doJSON(t, r, http.MethodPost, "/api/cart", token, gin.H{"menu_item_id": itemID, "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)
	w, resp := doJSON(t, r, http.MethodPost, "/api/orders", token, gin.H{"address": "Grand Place 1"})
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := int64(resp["order"].(map[string]any)["id"].(float64))

	statusPath := fmt.Sprintf("/api/admin/orders/%d/status", orderID)

	// Sauter une étape est refusé
	w, _ = doJSON(t, r, http.MethodPut, statusPath, adminToken, gin.H{"status": "delivered"})
	assert.Equal(t, http.StatusConflict, w.Code)

	for _, status := range []string{"preparing", "out_for_delivery", "delivered"} {
		w, _ = doJSON(t, r, http.MethodPut, statusPath, adminToken, gin.H{"status": status})
		require.Equal(t, http.StatusOK, w.Code, status)
	}

	// Une commande livrée ne s'annule plus
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/orders/%d/cancel", orderID), token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Filtre par statut côté back office
	w, resp = doJSON(t, r, http.MethodGet, "/api/admin/orders?status=delivered", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["orders"], 1)
	w, resp = doJSON(t, r, http.MethodGet, "/api/admin/orders?status=pending", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp["orders"])
}

func TestCancelPendingOrder(t *testing.T) {
	r := newTestServer(t)
	adminToken := registerAdmin(t, r)
	itemID := createMenuItem(t, r, adminToken, gin.H{"name": "Soupe", "price": 4.0})

	token := registerUser(t, r, "Client", "client@example.com")
	w, _ := doJSON(t, r, http.MethodPost, "/api/cart", token, gin.H{"menu_item_id": itemID, "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)
	w, resp := doJSON(t, r, http.MethodPost, "/api/orders", token, gin.H{"address": "Rue Haute 12"})
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := int64(resp["order"].(map[string]any)["id"].(float64))

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/orders/%d/cancel", orderID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", resp["order"].(map[string]any)["status"])
}

func TestReceiptHTML(t *testing.T) {
	r := newTestServer(t)
	adminToken := registerAdmin(t, r)
	itemID := createMenuItem(t, r, adminToken, gin.H{"name": "Gaufre", "price": 3.0})

	token := registerUser(t, r, "Client", "client@example.com")
	w, _ := doJSON(t, r, http.MethodPost, "/api/cart", token, gin.H{"menu_item_id": itemID, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)
	w, resp := doJSON(t, r, http.MethodPost, "/api/orders", token, gin.H{"address": "Avenue Louise 100"})
	require.Equal(t, http.StatusCreated, w.Code)
	order := resp["order"].(map[string]any)
	orderID := int64(order["id"].(float64))

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/orders/%d/receipt?format=html", orderID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), order["reference"].(string))
	assert.Contains(t, rec.Body.String(), "Gaufre")
}

func TestDeleteMenuItemCleansCarts(t *testing.T) {
	r := newTestServer(t)
	adminToken := registerAdmin(t, r)
	itemID := createMenuItem(t, r, adminToken, gin.H{"name": "Croquettes", "price": 8.0})

	token := registerUser(t, r, "Client", "client@example.com")
	w, _ := doJSON(t, r, http.MethodPost, "/api/cart", token, gin.H{"menu_item_id": itemID, "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/admin/menu/%d", itemID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := doJSON(t, r, http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp["items"])
}

func TestReindexWithoutElastic(t *testing.T) {
	r := newTestServer(t)
	adminToken := registerAdmin(t, r)
	createMenuItem(t, r, adminToken, gin.H{"name": "Boulets liégeois", "price": 13.5})

	// Sans Elasticsearch, la réindexation échoue franchement au lieu
	// d'annoncer un faux succès
	w, resp := doJSON(t, r, http.MethodPost, "/api/admin/search/reindex", adminToken, nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 0.0, resp["count"])
}

func TestSetAdmin(t *testing.T) {
	r := newTestServer(t)
	adminToken := registerAdmin(t, r)

	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Futur admin", "email": "futur@example.com", "password": "motdepasse",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	userID := int64(resp["user"].(map[string]any)["id"].(float64))

	w, _ = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/admin", userID), adminToken, gin.H{"is_admin": true})
	require.Equal(t, http.StatusOK, w.Code)

	// Le nouveau token porte le droit admin
	w, resp = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "futur@example.com", "password": "motdepasse",
	})
	require.Equal(t, http.StatusOK, w.Code)
	newToken := resp["token"].(string)
	w, _ = doJSON(t, r, http.MethodGet, "/api/admin/orders", newToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
