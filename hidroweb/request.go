package hidroweb

import (
	"context"
	"encoding/json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"io"
	"net/http"
	"net/url"
)

// Fetch performs an authenticated GET request against the given endpoint and
// decodes the response envelope.
// It authenticates lazily, re-authenticates exactly once on a 401 and retries
// transport failures with exponential backoff up to the configured maximum
// attempt count. Any other non-2xx status is surfaced immediately.
func (client *Client) Fetch(ctx context.Context, endpoint string, params url.Values) (*Envelope, error) {
	logger := client.logger.With().
		Str("request_id", uuid.NewString()).
		Str("endpoint", endpoint).
		Logger()

	token, err := client.session.tokenContext(ctx)
	if err != nil {
		return nil, err
	}

	status, body, err := client.attempt(ctx, &logger, endpoint, params, token)
	if err != nil {
		return nil, err
	}

	// A 401 means the held token expired; re-authenticate exactly once and
	// retry the request exactly once. A second 401 is surfaced to the caller.
	if status == http.StatusUnauthorized {
		logger.Debug().Msg("token rejected, re-authenticating")
		token, err = client.session.refresh(ctx)
		if err != nil {
			return nil, err
		}
		status, body, err = client.attempt(ctx, &logger, endpoint, params, token)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			return nil, &AuthenticationError{StatusCode: status, Message: "request rejected twice with a fresh token"}
		}
	}

	if status < 200 || status >= 300 {
		message := http.StatusText(status)
		envelope := new(Envelope)
		if err := json.Unmarshal(body, envelope); err == nil && envelope.Message != "" {
			message = envelope.Message
		}
		return nil, &APIError{StatusCode: status, Endpoint: endpoint, Message: message, Body: body}
	}

	envelope := new(Envelope)
	if err := json.Unmarshal(body, envelope); err != nil {
		return nil, &APIError{StatusCode: status, Endpoint: endpoint, Message: "malformed JSON body", Body: body}
	}
	envelope.HTTPStatus = status

	logger.Debug().Int("status", status).Msg("request succeeded")
	return envelope, nil
}

// attempt delivers a single logical request, retrying transport failures
// (connection and timeout errors, not HTTP-level errors) with a doubling
// backoff delay. It gives up after MaxRetries+1 attempts.
func (client *Client) attempt(ctx context.Context, logger *zerolog.Logger, endpoint string, params url.Values, token *oauth2.Token) (int, []byte, error) {
	delay := client.backoffBase
	for attempts := 1; ; attempts++ {
		request, err := client.newRequest(ctx, endpoint, params, token)
		if err != nil {
			return 0, nil, err
		}

		response, err := client.http.Do(request)
		if err == nil {
			body, readErr := io.ReadAll(response.Body)
			response.Body.Close()
			if readErr == nil {
				return response.StatusCode, body, nil
			}
			err = readErr
		}

		if ctx.Err() != nil {
			return 0, nil, &ConnectionError{Attempts: attempts, Last: ctx.Err()}
		}
		if attempts > client.config.MaxRetries {
			return 0, nil, &ConnectionError{Attempts: attempts, Last: err}
		}

		logger.Debug().Err(err).Int("attempt", attempts).Dur("backoff", delay).Msg("transport failure, backing off")
		client.sleep(delay)
		delay *= 2
	}
}

func (client *Client) newRequest(ctx context.Context, endpoint string, params url.Values, token *oauth2.Token) (*http.Request, error) {
	target := client.session.baseURL.JoinPath(endpoint)
	if len(params) > 0 {
		target.RawQuery = params.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	token.SetAuthHeader(request)
	return request, nil
}
