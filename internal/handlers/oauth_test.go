package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt_back_end/internal/handlers"
)

func TestProviderName(t *testing.T) {
	// Rien dans la requête → erreur
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback", nil)
	_, err := handlers.ProviderName(req)
	require.Error(t, err)

	// Le segment :provider posé dans le contexte par BeginAuth/CallbackAuth
	withCtx := req.WithContext(context.WithValue(req.Context(), handlers.ProviderKey, "google"))
	name, err := handlers.ProviderName(withCtx)
	require.NoError(t, err)
	assert.Equal(t, "google", name)

	// Repli sur le paramètre de requête
	queryReq := httptest.NewRequest(http.MethodGet, "/api/auth/callback?provider=facebook", nil)
	name, err = handlers.ProviderName(queryReq)
	require.NoError(t, err)
	assert.Equal(t, "facebook", name)
}
