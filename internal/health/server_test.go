package health

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLivenessEndpoint(t *testing.T) {
	router := newRouter()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	router.ServeHTTP(w, r)

	result := w.Result()
	defer result.Body.Close()
	assert.Equal(t, http.StatusOK, result.StatusCode)

	body, err := io.ReadAll(result.Body)
	require.NoError(t, err)
	assert.Equal(t, "Anti-duplicate link bot is running", string(body))
}

func TestLivenessEndpointRejectsPost(t *testing.T) {
	router := newRouter()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Result().StatusCode)
}
