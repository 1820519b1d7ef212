package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ChangoHQ/chango_backend/internal/apperrors"
	"github.com/ChangoHQ/chango_backend/internal/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func postLogin(router *gin.Engine, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginReturnsToken(t *testing.T) {
	router, svcs := newTestRouter(t)
	userID := uuid.NewString()

	svcs.auth.On("Login", mock.Anything, dto.LoginRequest{Username: "admin", Password: "s3cret"}).
		Return(&dto.LoginResponse{
			Token:     "token-abc",
			ExpiresAt: time.Now().Add(time.Hour),
			UserID:    userID,
			Name:      "Admin",
		}, nil).Once()

	body, _ := json.Marshal(gin.H{"username": "admin", "password": "s3cret"})
	w := postLogin(router, body)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "token-abc", resp.Token)
	assert.Equal(t, userID, resp.UserID)
	svcs.auth.AssertExpectations(t)
}

func TestLoginBadCredentials(t *testing.T) {
	router, svcs := newTestRouter(t)

	svcs.auth.On("Login", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrValidation).Once()

	body, _ := json.Marshal(gin.H{"username": "admin", "password": "wrong"})
	w := postLogin(router, body)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginMissingFields(t *testing.T) {
	router, svcs := newTestRouter(t)

	body, _ := json.Marshal(gin.H{"username": "admin"})
	w := postLogin(router, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svcs.auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}
