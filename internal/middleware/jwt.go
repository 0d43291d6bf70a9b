package middleware

import (
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// jwtSecret est lu à chaque requête : même valeur de repli que la
// génération des tokens dans utils.GenerateJWT
func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "super_secret"
	}
	return []byte(secret)
}

// userFromBearer retourne (user_id, is_admin, ok) depuis un token Bearer.
// C'est la voie d'accès des clients d'API ; le navigateur passe par la session.
func userFromBearer(c *gin.Context) (int64, bool, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return 0, false, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false, false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("méthode de signature inattendue: %v", token.Header["alg"])
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return 0, false, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false, false
	}

	// jwt.Parse vérifie déjà l'expiration ; il reste à extraire les claims
	rawID, ok := claims["user_id"].(float64)
	if !ok || rawID == 0 {
		return 0, false, false
	}
	isAdmin, _ := claims["is_admin"].(bool)
	return int64(rawID), isAdmin, true
}
