package hidroweb

import (
	"context"
	"encoding/json"
	"fmt"
	"golang.org/x/oauth2"
	"io"
	"net/http"
	"net/url"
	"sync"
)

// authEndpoint is the fixed authentication endpoint, relative to the base URL.
// The odd capitalization is the service's, not ours.
const authEndpoint = "OAUth/v1"

// session owns the mutable bearer token of a client.
// The token is obtained lazily on the first request, replaced wholesale on
// (re)authentication and shared by all calls going through the same client.
type session struct {
	http     *http.Client
	baseURL  *url.URL
	user     string
	password string

	mtx   sync.Mutex
	token *oauth2.Token
}

var _ oauth2.TokenSource = (*session)(nil)

// Token implements oauth2.TokenSource using the background context
func (ses *session) Token() (*oauth2.Token, error) {
	return ses.tokenContext(context.Background())
}

// tokenContext returns the held token, authenticating first if no valid token
// is present
func (ses *session) tokenContext(ctx context.Context) (*oauth2.Token, error) {
	ses.mtx.Lock()
	defer ses.mtx.Unlock()

	if ses.token.Valid() {
		return ses.token, nil
	}
	token, err := ses.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	ses.token = token
	return token, nil
}

// refresh discards the held token and authenticates again
func (ses *session) refresh(ctx context.Context) (*oauth2.Token, error) {
	ses.mtx.Lock()
	defer ses.mtx.Unlock()

	ses.token = nil
	token, err := ses.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	ses.token = token
	return token, nil
}

// authenticate sends the credentials to the authentication endpoint and
// extracts the bearer token out of the response
func (ses *session) authenticate(ctx context.Context) (*oauth2.Token, error) {
	endpoint := ses.baseURL.JoinPath(authEndpoint)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Identificador", ses.user)
	request.Header.Set("Senha", ses.password)

	response, err := ses.http.Do(request)
	if err != nil {
		return nil, &AuthenticationError{Message: err.Error()}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, &AuthenticationError{StatusCode: response.StatusCode, Message: err.Error()}
	}

	envelope := new(Envelope)
	if response.StatusCode != http.StatusOK {
		message := "no message provided"
		if err := json.Unmarshal(body, envelope); err == nil && envelope.Message != "" {
			message = envelope.Message
		}
		return nil, &AuthenticationError{StatusCode: response.StatusCode, Message: message}
	}
	if err := json.Unmarshal(body, envelope); err != nil {
		return nil, &AuthenticationError{StatusCode: response.StatusCode, Message: fmt.Sprintf("malformed authentication response: %s", err)}
	}

	items := struct {
		Token string `json:"tokenautenticacao"`
	}{}
	if envelope.Items != nil {
		if err := json.Unmarshal(envelope.Items, &items); err != nil {
			return nil, &AuthenticationError{StatusCode: response.StatusCode, Message: fmt.Sprintf("malformed authentication response: %s", err)}
		}
	}
	if items.Token == "" {
		return nil, &AuthenticationError{StatusCode: response.StatusCode, Message: "authentication token not found in response"}
	}

	return &oauth2.Token{AccessToken: items.Token, TokenType: "Bearer"}, nil
}
