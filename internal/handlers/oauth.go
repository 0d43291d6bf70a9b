package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth/gothic"

	"foodcourt_back_end/internal/database"
	"foodcourt_back_end/internal/middleware"
	"foodcourt_back_end/internal/models"
	"foodcourt_back_end/internal/storage"
	"foodcourt_back_end/internal/utils"
)

type ctxKey string

const ProviderKey ctxKey = "provider"

// ProviderName résout le provider OAuth : d'abord le contexte posé par
// BeginAuth/CallbackAuth (segment :provider), sinon la requête.
// Branché sur gothic.GetProviderName au démarrage.
func ProviderName(req *http.Request) (string, error) {
	if provider, ok := req.Context().Value(ProviderKey).(string); ok && provider != "" {
		return provider, nil
	}
	if provider := req.URL.Query().Get("provider"); provider != "" {
		return provider, nil
	}
	if provider := req.FormValue("provider"); provider != "" {
		return provider, nil
	}
	return "", errors.New("provider introuvable")
}

func BeginAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun provider spécifié"})
		return
	}

	c.Request = c.Request.WithContext(
		context.WithValue(c.Request.Context(), ProviderKey, provider),
	)

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

func CallbackAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun provider spécifié"})
		return
	}

	c.Request = c.Request.WithContext(
		context.WithValue(c.Request.Context(), ProviderKey, provider),
	)

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	// Lier le compte social à un compte local (créé au premier passage)
	user, err := database.Store.GetUserByEmail(ctx, gothUser.Email)
	if errors.Is(err, storage.ErrNotFound) {
		user = &models.User{
			Name:       gothUser.Name,
			Email:      gothUser.Email,
			Provider:   gothUser.Provider,
			ProviderID: gothUser.UserID,
		}
		if err := database.Store.CreateUser(ctx, user); err != nil {
			log.Println("❌ Erreur création compte OAuth:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création du compte"})
			return
		}
		log.Printf("✅ Compte créé via %s: %s", gothUser.Provider, gothUser.Email)
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}

	if err := middleware.OpenSession(c, user); err != nil {
		log.Println("⚠️ Erreur ouverture session:", err)
	}

	token, _ := utils.GenerateJWT(user)
	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"token": token,
	})
}
