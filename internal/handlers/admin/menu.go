// Package admin regroupe les handlers du back office (menu, commandes,
// utilisateurs). Toutes ces routes passent par RequireAdmin.
package admin

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"foodcourt_back_end/internal/cache"
	"foodcourt_back_end/internal/database"
	"foodcourt_back_end/internal/models"
	"foodcourt_back_end/internal/service"
	"foodcourt_back_end/internal/services"
	"foodcourt_back_end/internal/storage"
)

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID invalide"})
		return 0, false
	}
	return id, true
}

type menuItemInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Available   *bool   `json:"available"`
}

func (in *menuItemInput) validate(c *gin.Context) bool {
	if in.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nom du plat manquant"})
		return false
	}
	if in.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prix invalide"})
		return false
	}
	return true
}

//
// 🟢 POST /api/admin/menu
//
func CreateMenuItem(c *gin.Context) {
	var input menuItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if !input.validate(c) {
		return
	}

	item := &models.MenuItem{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		Available:   true,
	}
	if input.Available != nil {
		item.Available = *input.Available
	}

	if err := database.Store.CreateMenuItem(c.Request.Context(), item); err != nil {
		log.Println("❌ Erreur création plat:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création du plat"})
		return
	}

	service.IndexMenuItem(*item)
	cache.InvalidateMenuItem(c.Request.Context(), item.ID)

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

//
// 🔁 PUT /api/admin/menu/:id
//
func UpdateMenuItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input menuItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if !input.validate(c) {
		return
	}

	ctx := c.Request.Context()
	item, err := database.Store.GetMenuItem(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plat introuvable"})
		return
	}

	item.Name = input.Name
	item.Description = input.Description
	item.Price = input.Price
	item.Category = input.Category
	if input.Available != nil {
		item.Available = *input.Available
	}

	if err := database.Store.UpdateMenuItem(ctx, item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour du plat"})
		return
	}

	service.IndexMenuItem(*item)
	cache.InvalidateMenuItem(ctx, item.ID)

	c.JSON(http.StatusOK, gin.H{"item": item})
}

//
// ❌ DELETE /api/admin/menu/:id
//
func DeleteMenuItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	err := database.Store.DeleteMenuItem(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plat introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression du plat"})
		return
	}

	service.RemoveMenuItem(id)
	cache.InvalidateMenuItem(c.Request.Context(), id)

	c.JSON(http.StatusOK, gin.H{"message": "Plat supprimé"})
}

//
// 🖼️ POST /api/admin/menu/:id/image
//
func UploadMenuImage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	item, err := database.Store.GetMenuItem(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plat introuvable"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier image manquant"})
		return
	}

	url, err := services.UploadMenuImage(ctx, id, file)
	if err != nil {
		log.Println("❌ Erreur upload image:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur stockage de l'image"})
		return
	}

	item.ImageURL = url
	if err := database.Store.UpdateMenuItem(ctx, item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour du plat"})
		return
	}

	cache.InvalidateMenuItem(ctx, id)
	c.JSON(http.StatusOK, gin.H{"image_url": url})
}

//
// 🔄 POST /api/admin/search/reindex
//
func ReindexMenu(c *gin.Context) {
	ctx := c.Request.Context()

	items, err := database.Store.ListMenuItems(ctx, storage.MenuFilter{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture du menu"})
		return
	}

	indexed, err := service.ReindexMenu(ctx, items)
	if err != nil {
		log.Println("❌ Réindexation incomplète:", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Réindexation incomplète", "count": indexed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu réindexé", "count": indexed})
}
