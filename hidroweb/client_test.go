package hidroweb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, baseURL string, maxRetries int) (*Client, *[]time.Duration) {
	t.Helper()
	client, err := New(&Config{
		BaseURL:    baseURL,
		User:       "tester",
		Password:   "secret",
		Timeout:    time.Second,
		MaxRetries: maxRetries,
	})
	require.NoError(t, err)

	sleeps := &[]time.Duration{}
	client.sleep = func(delay time.Duration) {
		*sleeps = append(*sleeps, delay)
	}
	return client, sleeps
}

func authHandler(t *testing.T, tokens []string, calls *int) http.HandlerFunc {
	t.Helper()
	return func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Identificador") != "tester" || request.Header.Get("Senha") != "secret" {
			writer.WriteHeader(http.StatusUnauthorized)
			writer.Write([]byte(`{"status":"Unauthorized","message":"bad credentials"}`))
			return
		}
		token := tokens[len(tokens)-1]
		if *calls < len(tokens) {
			token = tokens[*calls]
		}
		*calls++
		json.NewEncoder(writer).Encode(map[string]interface{}{
			"status":  "OK",
			"message": "authenticated",
			"items":   map[string]string{"tokenautenticacao": token},
		})
	}
}

func TestClient_LazyAuthentication(t *testing.T) {
	authCalls, dataCalls := 0, 0
	mux := http.NewServeMux()
	mux.HandleFunc("/OAUth/v1", authHandler(t, []string{"tok1"}, &authCalls))
	mux.HandleFunc("/HidroBacia/v1", func(writer http.ResponseWriter, request *http.Request) {
		dataCalls++
		assert.Equal(t, "Bearer tok1", request.Header.Get("Authorization"))
		writer.Write([]byte(`{"status":"OK","message":"ok","items":[{"codigo":"1","nome":"RIO AMAZONAS"}]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := newTestClient(t, server.URL, 0)
	defer client.Close()

	basins, err := client.Basins(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, basins, 1)
	assert.Equal(t, "RIO AMAZONAS", basins[0].Name)
	assert.Equal(t, 1, authCalls)
	assert.Equal(t, 1, dataCalls)

	// The token is reused; no second authentication happens
	_, err = client.Basins(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, authCalls)
	assert.Equal(t, 2, dataCalls)
}

func TestClient_AuthenticationFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-2xx status",
			handler: func(writer http.ResponseWriter, _ *http.Request) {
				writer.WriteHeader(http.StatusForbidden)
				writer.Write([]byte(`{"status":"Forbidden","message":"bad credentials"}`))
			},
		},
		{
			name: "missing token field",
			handler: func(writer http.ResponseWriter, _ *http.Request) {
				writer.Write([]byte(`{"status":"OK","message":"ok","items":{}}`))
			},
		},
		{
			name: "null items",
			handler: func(writer http.ResponseWriter, _ *http.Request) {
				writer.Write([]byte(`{"status":"OK","message":"ok","items":null}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/OAUth/v1", tt.handler)
			server := httptest.NewServer(mux)
			defer server.Close()

			client, _ := newTestClient(t, server.URL, 0)
			defer client.Close()

			_, err := client.Basins(context.Background(), nil)
			var authErr *AuthenticationError
			require.ErrorAs(t, err, &authErr)
		})
	}
}

func TestClient_ReauthenticateOn401(t *testing.T) {
	authCalls, dataCalls := 0, 0
	mux := http.NewServeMux()
	mux.HandleFunc("/OAUth/v1", authHandler(t, []string{"stale", "fresh"}, &authCalls))
	mux.HandleFunc("/HidroBacia/v1", func(writer http.ResponseWriter, request *http.Request) {
		dataCalls++
		if request.Header.Get("Authorization") != "Bearer fresh" {
			writer.WriteHeader(http.StatusUnauthorized)
			writer.Write([]byte(`{"status":"Unauthorized","message":"expired"}`))
			return
		}
		writer.Write([]byte(`{"status":"OK","message":"ok","items":[]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := newTestClient(t, server.URL, 0)
	defer client.Close()

	_, err := client.Basins(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, authCalls, "expected exactly one re-authentication")
	assert.Equal(t, 2, dataCalls, "expected exactly one retried request")
}

func TestClient_SecondUnauthorizedSurfaces(t *testing.T) {
	authCalls, dataCalls := 0, 0
	mux := http.NewServeMux()
	mux.HandleFunc("/OAUth/v1", authHandler(t, []string{"tok"}, &authCalls))
	mux.HandleFunc("/HidroBacia/v1", func(writer http.ResponseWriter, _ *http.Request) {
		dataCalls++
		writer.WriteHeader(http.StatusUnauthorized)
		writer.Write([]byte(`{"status":"Unauthorized","message":"expired"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := newTestClient(t, server.URL, 0)
	defer client.Close()

	_, err := client.Basins(context.Background(), nil)
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 2, authCalls)
	assert.Equal(t, 2, dataCalls, "a second 401 must not be retried further")
}

func TestClient_RetriesTransportFailures(t *testing.T) {
	// A closed server makes every attempt fail on the transport level
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client, sleeps := newTestClient(t, server.URL, 2)
	defer client.Close()

	// Pre-seed the token so the failure hits the request pipeline, not the
	// authentication call
	client.session.token = &oauth2.Token{AccessToken: "tok", TokenType: "Bearer"}

	_, err := client.Basins(context.Background(), nil)
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, 3, connErr.Attempts, "expected exactly max retries + 1 attempts")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *sleeps, "expected a doubling backoff delay")
}

func TestClient_APIErrorsAreNotRetried(t *testing.T) {
	authCalls, dataCalls := 0, 0
	mux := http.NewServeMux()
	mux.HandleFunc("/OAUth/v1", authHandler(t, []string{"tok"}, &authCalls))
	mux.HandleFunc("/HidroBacia/v1", func(writer http.ResponseWriter, _ *http.Request) {
		dataCalls++
		writer.WriteHeader(http.StatusInternalServerError)
		writer.Write([]byte(`{"status":"Error","message":"upstream database down"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, sleeps := newTestClient(t, server.URL, 3)
	defer client.Close()

	_, err := client.Basins(context.Background(), nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "upstream database down", apiErr.Message)
	assert.Equal(t, 1, dataCalls, "HTTP-level errors must not be retried")
	assert.Empty(t, *sleeps)
}

func TestClient_MalformedBody(t *testing.T) {
	authCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/OAUth/v1", authHandler(t, []string{"tok"}, &authCalls))
	mux.HandleFunc("/HidroBacia/v1", func(writer http.ResponseWriter, _ *http.Request) {
		writer.Write([]byte(`<html>definitely not json</html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := newTestClient(t, server.URL, 0)
	defer client.Close()

	_, err := client.Basins(context.Background(), nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Body)
}

func TestClient_Series(t *testing.T) {
	authCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/OAUth/v1", authHandler(t, []string{"tok"}, &authCalls))
	mux.HandleFunc("/HidroSerieVazao/v1", func(writer http.ResponseWriter, request *http.Request) {
		query := request.URL.Query()
		assert.Equal(t, "12345678", query.Get("Código da Estação"))
		assert.Equal(t, "2024-01-01", query.Get("Data Inicial (yyyy-MM-dd)"))
		assert.Equal(t, "2024-01-31", query.Get("Data Final (yyyy-MM-dd)"))
		writer.Write([]byte(`{"status":"OK","message":"ok","items":[
			{"data":"2024-01-01","valor":"12,5","qualidade":"1","metodo":"medido"},
			{"data":"2024-01-02","valor":null,"qualidade":"1","metodo":"medido"}
		]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, _ := newTestClient(t, server.URL, 0)
	defer client.Close()

	// Day-first input dates are normalized before they hit the wire
	points, err := client.Series(context.Background(), SeriesFlow, "12345678", "01/01/2024", "31/01/2024")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.True(t, points[0].Value.Valid)
	assert.Equal(t, 12.5, points[0].Value.Float)
	assert.False(t, points[1].Value.Valid)
}

func TestClient_SeriesValidation(t *testing.T) {
	client, _ := newTestClient(t, "http://localhost:0", 0)
	defer client.Close()

	var validationErr *ValidationError

	_, err := client.Series(context.Background(), SeriesFlow, "1234", "2024-01-01", "2024-01-31")
	require.ErrorAs(t, err, &validationErr)

	_, err = client.Series(context.Background(), SeriesFlow, "12345678", "2024-02-01", "2024-01-01")
	require.ErrorAs(t, err, &validationErr)

	_, err = client.Series(context.Background(), SeriesKind("snow"), "12345678", "2024-01-01", "2024-01-31")
	require.ErrorAs(t, err, &validationErr)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(&Config{BaseURL: "://not-a-url", Timeout: time.Second})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = New(&Config{BaseURL: "https://example.com", Timeout: time.Second, MaxRetries: -1})
	require.ErrorAs(t, err, &validationErr)
}

func TestNew_DefaultBaseURL(t *testing.T) {
	client, err := New(&Config{Timeout: time.Second})
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, DefaultBaseURL, client.session.baseURL.String())
}
