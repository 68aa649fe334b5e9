package pdl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCompanyOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/company/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.Contains(t, r.URL.Query().Get("sql"), "acme")
		assert.Equal(t, "1", r.URL.Query().Get("size"))
		_, _ = w.Write([]byte(`{"status":200,"data":[{"name":"acme solutions","website":"acme.example"}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	records, err := client.SearchCompany(context.Background(),
		`SELECT * FROM company WHERE name = 'acme solutions'`, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "acme solutions", records[0]["name"])
}

func TestSearchCompanyNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	records, err := client.SearchCompany(context.Background(), "SELECT 1", 1)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSearchCompanyUnauthorized(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusPaymentRequired} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))

		client := NewClient("bad-key", WithBaseURL(srv.URL))
		_, err := client.SearchCompany(context.Background(), "SELECT 1", 1)
		assert.True(t, eris.Is(err, ErrUnauthorized), code)
		srv.Close()
	}
}

func TestSearchCompanyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.SearchCompany(context.Background(), "SELECT 1", 1)
	require.Error(t, err)
	assert.False(t, eris.Is(err, ErrUnauthorized))
}
