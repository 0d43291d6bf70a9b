package admin

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"foodcourt_back_end/internal/database"
	"foodcourt_back_end/internal/models"
	"foodcourt_back_end/internal/storage"
)

//
// 🟢 GET /api/admin/orders?status=...
//
func ListOrders(c *gin.Context) {
	status := c.Query("status")

	orders, err := database.Store.ListOrders(c.Request.Context(), status)
	if err != nil {
		log.Println("❌ Erreur lecture commandes:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

//
// 🔁 PUT /api/admin/orders/:id/status
//
func UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut manquant"})
		return
	}

	err := database.Store.UpdateOrderStatus(c.Request.Context(), id, input.Status)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	case errors.Is(err, storage.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Transition de statut invalide"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour du statut"})
		return
	}

	order, err := database.Store.GetOrder(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture de la commande"})
		return
	}
	log.Printf("✅ Commande %s passée en %s", order.Reference, order.Status)
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// validStatuses aide le front du back office à construire ses menus
var validStatuses = []string{
	models.OrderStatusPending,
	models.OrderStatusPreparing,
	models.OrderStatusOutForDelivery,
	models.OrderStatusDelivered,
	models.OrderStatusCancelled,
}

//
// 🟢 GET /api/admin/orders/statuses
//
func ListOrderStatuses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"statuses": validStatuses})
}
