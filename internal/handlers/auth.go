package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"foodcourt_back_end/internal/database"
	"foodcourt_back_end/internal/middleware"
	"foodcourt_back_end/internal/models"
	"foodcourt_back_end/internal/storage"
	"foodcourt_back_end/internal/utils"
)

//
// 🟢 POST /api/auth/register
//
func Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email invalide"})
		return
	}
	if len(input.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Mot de passe trop court (8 caractères minimum)"})
		return
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}

	user := &models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: hash,
		// Le compte désigné par ADMIN_EMAIL devient administrateur du back office
		IsAdmin: input.Email == strings.ToLower(os.Getenv("ADMIN_EMAIL")),
	}

	if err := database.Store.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email déjà utilisé"})
			return
		}
		log.Println("❌ Erreur création utilisateur:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création du compte"})
		return
	}

	if err := middleware.OpenSession(c, user); err != nil {
		log.Println("⚠️ Erreur ouverture session:", err)
	}

	token, _ := utils.GenerateJWT(user)
	c.JSON(http.StatusCreated, gin.H{
		"user":  user,
		"token": token,
	})
}

//
// 🟢 POST /api/auth/login
//
func Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	user, err := database.Store.GetUserByEmail(c.Request.Context(), input.Email)
	if err != nil {
		middleware.RecordFailedLogin(input.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	ok, err := utils.VerifyPassword(input.Password, user.Password)
	if err != nil || !ok {
		middleware.RecordFailedLogin(input.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	middleware.ResetLoginAttempts(input.Email)

	if err := middleware.OpenSession(c, user); err != nil {
		log.Println("⚠️ Erreur ouverture session:", err)
	}

	token, _ := utils.GenerateJWT(user)
	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"token": token,
	})
}

//
// 🔴 POST /api/auth/logout
//
func Logout(c *gin.Context) {
	if err := middleware.CloseSession(c); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur fermeture de session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Déconnecté"})
}

//
// 🟢 GET /api/auth/me
//
func Me(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	user, err := database.Store.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
