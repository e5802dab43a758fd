package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "dealgate/pkg/domain"
	"dealgate/pkg/requestcontext"
)

var signingKey = []byte("test-signing-key")

func signToken(t *testing.T, subject string, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestActorAuth(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	var gotActor id.ActorID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor = requestcontext.ActorID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := ActorAuth(signingKey, logger)(next)

	t.Run("valid token sets the actor", func(t *testing.T) {
		actor := id.NewActorID()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, actor.String(), signingKey))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, actor, gotActor)
	})

	t.Run("missing token passes through unauthenticated", func(t *testing.T) {
		gotActor = id.NewActorID()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, gotActor.IsNil())
	})

	t.Run("wrong key is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, id.NewActorID().String(), []byte("other-key")))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("non-uuid subject is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "not-a-uuid", signingKey))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRequestIDAndTime(t *testing.T) {
	var gotRequestID string
	var gotNow time.Time
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = requestcontext.RequestID(r.Context())
		gotNow = requestcontext.Now(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := RequestID(RequestTime(next))

	t.Run("generates a request id and pins time", func(t *testing.T) {
		before := time.Now().UTC()
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, gotRequestID)
		assert.Equal(t, gotRequestID, rr.Header().Get("X-Request-ID"))
		assert.False(t, gotNow.Before(before))
	})

	t.Run("honors a caller-provided request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "caller-supplied")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, "caller-supplied", gotRequestID)
	})
}
