package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"foodcourt_back_end/internal/cache"
	"foodcourt_back_end/internal/database"
	"foodcourt_back_end/internal/middleware"
	"foodcourt_back_end/internal/service"
	"foodcourt_back_end/internal/storage"
)

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID invalide"})
		return 0, false
	}
	return id, true
}

//
// 🟢 GET /api/menu
//
func ListMenu(c *gin.Context) {
	filter := storage.MenuFilter{
		Category:      c.Query("category"),
		Query:         c.Query("q"),
		SortBy:        c.Query("sort"),
		OnlyAvailable: true,
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	items, err := cache.ListMenuItems(c.Request.Context(), filter)
	if err != nil {
		log.Println("❌ Erreur lecture menu:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture du menu"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

//
// 🟢 GET /api/menu/:id
//
func GetMenuItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	item, err := cache.GetMenuItem(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plat introuvable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"item":   item,
		"rating": item.Rating(),
	})
}

//
// 🔍 GET /api/menu/search?q=...
//
func SearchMenu(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre q manquant"})
		return
	}

	// Elasticsearch quand il est là, sinon filtre du stockage
	if database.Elastic != nil {
		results, err := service.SearchMenu(query)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"results": results})
			return
		}
		log.Println("⚠️ Recherche Elastic échouée, repli sur le stockage:", err)
	}

	items, err := database.Store.ListMenuItems(c.Request.Context(), storage.MenuFilter{
		Query:         query,
		OnlyAvailable: true,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur de recherche"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

//
// ⭐ POST /api/menu/:id/rate
//
func RateMenuItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Stars int `json:"stars"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	err := database.Store.RateMenuItem(c.Request.Context(), id, input.Stars)
	switch {
	case errors.Is(err, storage.ErrInvalidRating):
		c.JSON(http.StatusBadRequest, gin.H{"error": "La note doit être entre 1 et 5"})
		return
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Plat introuvable"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement de la note"})
		return
	}

	cache.InvalidateMenuItem(c.Request.Context(), id)

	item, err := database.Store.GetMenuItem(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture du plat"})
		return
	}
	log.Printf("⭐ Note %d/5 pour %s (user %d)", input.Stars, item.Name, middleware.CurrentUserID(c))
	c.JSON(http.StatusOK, gin.H{
		"message": "Note enregistrée",
		"rating":  item.Rating(),
	})
}
