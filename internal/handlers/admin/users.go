package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"foodcourt_back_end/internal/database"
	"foodcourt_back_end/internal/storage"
)

//
// 🔁 PUT /api/admin/users/:id/admin
//
func SetAdmin(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	err := database.Store.SetAdmin(c.Request.Context(), id, input.IsAdmin)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour de l'utilisateur"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rôle mis à jour"})
}
