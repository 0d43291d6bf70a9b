package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"foodcourt_back_end/internal/cache"
	"foodcourt_back_end/internal/database"
	"foodcourt_back_end/internal/middleware"
	"foodcourt_back_end/internal/models"
	"foodcourt_back_end/internal/storage"
	"foodcourt_back_end/internal/utils"
)

//
// 🟢 POST /api/orders — passe la commande depuis le panier
//
func Checkout(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	ctx := c.Request.Context()

	var input struct {
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	input.Address = strings.TrimSpace(input.Address)
	if input.Address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Adresse de livraison manquante"})
		return
	}

	cartItems, err := database.Store.ListCart(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture du panier"})
		return
	}
	if len(cartItems) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
		return
	}

	// 📸 Instantané des prix au moment de l'achat
	order := &models.Order{
		Reference: uuid.NewString(),
		UserID:    userID,
		Address:   input.Address,
	}
	for _, ci := range cartItems {
		item, err := database.Store.GetMenuItem(ctx, ci.MenuItemID)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Un plat du panier n'est plus au menu"})
			return
		}
		if !item.Available {
			c.JSON(http.StatusConflict, gin.H{"error": "Le plat « " + item.Name + " » n'est plus disponible"})
			return
		}
		order.Items = append(order.Items, models.OrderItem{
			MenuItemID: item.ID,
			Name:       item.Name,
			Price:      item.Price,
			Quantity:   ci.Quantity,
		})
		order.Total += item.Price * float64(ci.Quantity)
	}

	if err := database.Store.CreateOrder(ctx, order); err != nil {
		log.Println("❌ Erreur création commande:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création de la commande"})
		return
	}

	if err := database.Store.ClearCart(ctx, userID); err != nil {
		log.Println("⚠️ Erreur vidage panier après commande:", err)
	}

	for _, item := range order.Items {
		if err := database.Store.BumpPopularity(ctx, item.MenuItemID, item.Quantity); err == nil {
			cache.InvalidateMenuItem(ctx, item.MenuItemID)
		}
	}

	log.Printf("✅ Commande %s créée (user %d, total %.2f€)", order.Reference, userID, order.Total)

	// 📧 Confirmation par email, sans bloquer la réponse
	go sendOrderConfirmation(userID, order)

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func sendOrderConfirmation(userID int64, order *models.Order) {
	user, err := database.Store.GetUser(context.Background(), userID)
	if err != nil || user.Email == "" {
		return
	}

	html := utils.GenerateOrderConfirmationHTML(order)
	if err := utils.SendConfirmationEmail(user.Email, "Votre commande FoodCourt "+order.Reference, html, nil); err != nil {
		log.Println("⚠️ Email de confirmation non envoyé:", err)
	}
}

//
// 🟢 GET /api/orders
//
func ListMyOrders(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	orders, err := database.Store.ListOrdersByUser(c.Request.Context(), userID)
	if err != nil {
		log.Println("❌ Erreur lecture commandes:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// getOwnOrder charge une commande et vérifie qu'elle appartient bien à
// l'utilisateur connecté (les admins voient tout)
func getOwnOrder(c *gin.Context) (*models.Order, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}

	order, err := database.Store.GetOrder(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return nil, false
	}
	if order.UserID != middleware.CurrentUserID(c) && !c.GetBool("is_admin") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return nil, false
	}
	return order, true
}

//
// 🟢 GET /api/orders/:id
//
func GetOrderByID(c *gin.Context) {
	order, ok := getOwnOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

//
// ❌ POST /api/orders/:id/cancel
//
func CancelOrder(c *gin.Context) {
	order, ok := getOwnOrder(c)
	if !ok {
		return
	}

	err := database.Store.UpdateOrderStatus(c.Request.Context(), order.ID, models.OrderStatusCancelled)
	if errors.Is(err, storage.ErrInvalidTransition) {
		c.JSON(http.StatusConflict, gin.H{"error": "Cette commande ne peut plus être annulée"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur annulation de la commande"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Commande annulée"})
}

//
// 🧾 GET /api/orders/:id/receipt — reçu PDF (ou HTML avec ?format=html)
//
func OrderReceipt(c *gin.Context) {
	order, ok := getOwnOrder(c)
	if !ok {
		return
	}

	qr, err := utils.GeneratePickupQR(order.Reference)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération du QR"})
		return
	}
	html := utils.GenerateReceiptHTML(order, qr)

	if c.Query("format") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
		return
	}

	pdf, err := utils.RenderReceiptPDF(html)
	if err != nil {
		log.Println("❌ Erreur rendu PDF:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération du reçu PDF"})
		return
	}
	c.Header("Content-Disposition", "attachment; filename=recu_"+order.Reference+".pdf")
	c.Data(http.StatusOK, "application/pdf", pdf)
}
