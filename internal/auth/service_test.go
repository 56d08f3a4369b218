package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gigglechat/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthIssueValidateRefresh(t *testing.T) {
	svc := NewService("test-secret", time.Hour, 2*time.Hour)

	pair, err := svc.IssuePair(7)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	userID, err := svc.ValidateToken(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)

	// refresh tokens are not accepted as access tokens and vice versa
	_, err = svc.ValidateToken(pair.Refresh)
	require.ErrorIs(t, err, apperr.ErrAuth)
	_, err = svc.Refresh(pair.Access)
	require.ErrorIs(t, err, apperr.ErrAuth)

	access, err := svc.Refresh(pair.Refresh)
	require.NoError(t, err)
	userID, err = svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)
}

func TestAuthValidateExpiredToken(t *testing.T) {
	svc := NewService("test-secret", time.Minute, time.Hour)
	issued := time.Now()
	svc.now = func() time.Time { return issued }
	pair, err := svc.IssuePair(2)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = svc.ValidateToken(pair.Access)
	require.ErrorIs(t, err, apperr.ErrAuth)
	assert.Contains(t, err.Error(), "expired")

	// refresh is still within its lifetime
	_, err = svc.Refresh(pair.Refresh)
	require.NoError(t, err)
}

func TestAuthRejectsForeignSignatures(t *testing.T) {
	issuer := NewService("secret-a", time.Hour, time.Hour)
	verifier := NewService("secret-b", time.Hour, time.Hour)
	pair, err := issuer.IssuePair(1)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(pair.Access)
	require.ErrorIs(t, err, apperr.ErrAuth)

	_, err = verifier.ValidateToken("")
	require.ErrorIs(t, err, apperr.ErrAuth)

	_, err = verifier.ValidateToken("not.a.jwt")
	require.ErrorIs(t, err, apperr.ErrAuth)
}

func TestAuthRejectsUnexpectedAlgorithm(t *testing.T) {
	svc := NewService("secret", time.Hour, time.Hour)
	c := claims{
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(unsigned)
	require.ErrorIs(t, err, apperr.ErrAuth)
}

func TestIssuePairRequiresUser(t *testing.T) {
	svc := NewService("secret", 0, 0)
	_, err := svc.IssuePair(0)
	require.Error(t, err)
	assert.Equal(t, 5*time.Minute, svc.AccessTTL())
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewService("secret", time.Hour, time.Hour)
	router := gin.New()
	router.Use(svc.Middleware())
	router.GET("/whoami", func(c *gin.Context) {
		id, ok := UserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "authenticated": ok})
	})

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := do("")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)

	pair, err := svc.IssuePair(42)
	require.NoError(t, err)
	rec = do("Bearer " + pair.Access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":42`)

	rec = do("Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do("Basic " + strings.Repeat("a", 10))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
