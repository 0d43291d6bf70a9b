package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"foodcourt_back_end/internal/models"
)

const SessionName = "foodcourt_session"

var sessionStore *sessions.CookieStore

// InitSessionStore configure le store de sessions (cookies signés).
// Le même store est partagé avec gothic pour les connexions OAuth.
func InitSessionStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(86400 * 30)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   false, // false en dev, true en prod
		SameSite: http.SameSiteLaxMode,
	}
	sessionStore = store
	return store
}

// OpenSession enregistre l'utilisateur connecté dans la session
func OpenSession(c *gin.Context, user *models.User) error {
	session, _ := sessionStore.Get(c.Request, SessionName)
	session.Values["user_id"] = user.ID
	session.Values["is_admin"] = user.IsAdmin
	return session.Save(c.Request, c.Writer)
}

// CloseSession détruit la session (logout)
func CloseSession(c *gin.Context) error {
	session, _ := sessionStore.Get(c.Request, SessionName)
	session.Options.MaxAge = -1
	return session.Save(c.Request, c.Writer)
}

// userFromSession retourne (user_id, is_admin, ok) depuis le cookie de session
func userFromSession(c *gin.Context) (int64, bool, bool) {
	if sessionStore == nil {
		return 0, false, false
	}
	session, err := sessionStore.Get(c.Request, SessionName)
	if err != nil {
		return 0, false, false
	}
	userID, ok := session.Values["user_id"].(int64)
	if !ok || userID == 0 {
		return 0, false, false
	}
	isAdmin, _ := session.Values["is_admin"].(bool)
	return userID, isAdmin, true
}
