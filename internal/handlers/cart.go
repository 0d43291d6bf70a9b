package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"foodcourt_back_end/internal/cache"
	"foodcourt_back_end/internal/database"
	"foodcourt_back_end/internal/middleware"
	"foodcourt_back_end/internal/models"
	"foodcourt_back_end/internal/storage"
)

// loadCart lit le panier et l'enrichit avec les infos des plats
func loadCart(c *gin.Context, userID int64) ([]models.CartItem, float64, error) {
	ctx := c.Request.Context()

	items, err := database.Store.ListCart(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	total := 0.0
	for i := range items {
		item, err := cache.GetMenuItem(ctx, items[i].MenuItemID)
		if err != nil {
			continue
		}
		items[i].Name = item.Name
		items[i].Price = item.Price
		items[i].ImageURL = item.ImageURL
		total += item.Price * float64(items[i].Quantity)
	}
	return items, total, nil
}

//
// 🟢 GET /api/cart
//
func GetCart(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	items, total, err := loadCart(c, userID)
	if err != nil {
		log.Println("❌ Erreur lecture panier:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture du panier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

//
// 🟢 POST /api/cart
//
func AddToCart(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	ctx := c.Request.Context()

	var input struct {
		MenuItemID int64 `json:"menu_item_id"`
		Quantity   int   `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	// 🔁 Ajoute à la quantité déjà présente (une seule ligne par plat)
	quantity := input.Quantity
	existing, err := database.Store.ListCart(ctx, userID)
	if err == nil {
		for _, ci := range existing {
			if ci.MenuItemID == input.MenuItemID {
				quantity += ci.Quantity
				break
			}
		}
	}

	if err := database.Store.UpsertCartItem(ctx, userID, input.MenuItemID, quantity); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plat introuvable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour du panier"})
		return
	}

	items, total, err := loadCart(c, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture du panier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Plat ajouté au panier",
		"items":   items,
		"total":   total,
	})
}

//
// 🔁 PUT /api/cart/items/:id
//
func UpdateCartItem(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	menuItemID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	err := database.Store.UpsertCartItem(c.Request.Context(), userID, menuItemID, input.Quantity)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plat introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour du panier"})
		return
	}

	items, total, err := loadCart(c, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture du panier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

//
// ❌ DELETE /api/cart/items/:id
//
func RemoveFromCart(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	menuItemID, ok := parseID(c, "id")
	if !ok {
		return
	}

	err := database.Store.RemoveCartItem(c.Request.Context(), userID, menuItemID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plat absent du panier"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour du panier"})
		return
	}

	items, total, err := loadCart(c, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture du panier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Plat supprimé du panier",
		"items":   items,
		"total":   total,
	})
}

//
// 🧹 DELETE /api/cart/clear
//
func ClearCart(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	if err := database.Store.ClearCart(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors du vidage du panier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Panier vidé avec succès"})
}
