package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/eventdesk/internal/client/models"
)

// API is everything the services need from the backend.
type API interface {
	Login(ctx context.Context, email, password string) (models.Credential, error)
	Me(ctx context.Context) (models.User, error)
	ListPending(ctx context.Context) ([]models.EventProposal, error)
	ListApproved(ctx context.Context) ([]models.EventProposal, error)
	GetEvent(ctx context.Context, id int64) (models.EventProposal, error)
	CreateEvent(ctx context.Context, draft models.Draft) (models.EventProposal, error)
	Approve(ctx context.Context, id int64) (models.EventProposal, error)
	Reject(ctx context.Context, id int64) (models.EventProposal, error)
	AdvancePhase(ctx context.Context, id int64, to models.Phase, report models.PhaseReport) (models.EventProposal, error)
	UploadImage(ctx context.Context, id int64, fileName string, content io.Reader) (string, error)
	ListNotifications(ctx context.Context) ([]models.Notification, error)
}

var _ API = (*HTTPClient)(nil)

const invalidLoginMessage = "invalid email or password"

func malformed(what string, err error) error {
	return &APIError{Kind: KindServerError, Message: "malformed " + what, Err: err}
}

// Login exchanges credentials for a session. The request goes out without a
// bearer header and a 401 here means wrong credentials, not an expired
// session, so it is reported as a validation error.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (models.Credential, error) {
	body := map[string]string{"email": strings.TrimSpace(email), "password": password}

	var raw json.RawMessage
	err := c.Do(ctx, http.MethodPost, "/auth/login", body, &raw, withoutAuth())
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Kind == KindUnauthorized {
			msg := apiErr.Message
			if msg == "" {
				msg = invalidLoginMessage
			}
			return models.Credential{}, &APIError{Kind: KindValidation, Message: msg}
		}
		return models.Credential{}, err
	}

	var resp struct {
		Token   string          `json:"token"`
		User    json.RawMessage `json:"user"`
		Usuario json.RawMessage `json:"usuario"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.Credential{}, malformed("login response", err)
	}
	userJSON := resp.User
	if len(userJSON) == 0 {
		userJSON = resp.Usuario
	}
	if resp.Token == "" || len(userJSON) == 0 {
		return models.Credential{}, malformed("login response", errors.New("token or user missing"))
	}
	user, err := models.DecodeUser(userJSON)
	if err != nil {
		return models.Credential{}, malformed("login response", err)
	}
	return models.Credential{Token: resp.Token, User: user}, nil
}

// Me fetches the profile of the session owner.
func (c *HTTPClient) Me(ctx context.Context) (models.User, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/auth/me", nil, &raw); err != nil {
		return models.User{}, err
	}
	// some deployments wrap the profile as {"user": {...}}
	var env struct {
		User    json.RawMessage `json:"user"`
		Usuario json.RawMessage `json:"usuario"`
	}
	if json.Unmarshal(raw, &env) == nil {
		if len(env.User) > 0 {
			raw = env.User
		} else if len(env.Usuario) > 0 {
			raw = env.Usuario
		}
	}
	u, err := models.DecodeUser(raw)
	if err != nil {
		return models.User{}, malformed("profile", err)
	}
	return u, nil
}

func (c *HTTPClient) ListPending(ctx context.Context) ([]models.EventProposal, error) {
	return c.listEvents(ctx, "/eventos/pendientes")
}

func (c *HTTPClient) ListApproved(ctx context.Context) ([]models.EventProposal, error) {
	return c.listEvents(ctx, "/eventos/aprobados")
}

func (c *HTTPClient) listEvents(ctx context.Context, path string) ([]models.EventProposal, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	events, skipped, err := models.DecodeEvents(raw)
	if err != nil {
		return nil, malformed("event list", err)
	}
	for _, e := range skipped {
		c.log.Warn(ctx, "skipping malformed event row", "path", path, "error", e)
	}
	return events, nil
}

func (c *HTTPClient) GetEvent(ctx context.Context, id int64) (models.EventProposal, error) {
	return c.eventCall(ctx, http.MethodGet, fmt.Sprintf("/eventos/%d", id), nil)
}

func (c *HTTPClient) CreateEvent(ctx context.Context, draft models.Draft) (models.EventProposal, error) {
	draft.Tags = models.NormalizeTags(draft.Tags)
	return c.eventCall(ctx, http.MethodPost, "/eventos", draft)
}

func (c *HTTPClient) Approve(ctx context.Context, id int64) (models.EventProposal, error) {
	return c.eventCall(ctx, http.MethodPut, fmt.Sprintf("/eventos/%d/approve", id), nil)
}

func (c *HTTPClient) Reject(ctx context.Context, id int64) (models.EventProposal, error) {
	return c.eventCall(ctx, http.MethodPut, fmt.Sprintf("/eventos/%d/reject", id), nil)
}

// AdvancePhase moves an approved proposal into phase to, sending the part of
// report that belongs to that phase.
func (c *HTTPClient) AdvancePhase(ctx context.Context, id int64, to models.Phase, report models.PhaseReport) (models.EventProposal, error) {
	body := struct {
		Fase int `json:"fase"`
		models.PhaseReport
	}{Fase: int(to), PhaseReport: report.For(to)}
	return c.eventCall(ctx, http.MethodPut, fmt.Sprintf("/eventos/%d/fase", id), body)
}

// eventCall runs a request answered with a single event, either bare or
// wrapped as {"evento": {...}}.
func (c *HTTPClient) eventCall(ctx context.Context, method, path string, body any) (models.EventProposal, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, method, path, body, &raw); err != nil {
		return models.EventProposal{}, err
	}
	var env struct {
		Evento json.RawMessage `json:"evento"`
		Event  json.RawMessage `json:"event"`
	}
	if json.Unmarshal(raw, &env) == nil {
		if len(env.Evento) > 0 {
			raw = env.Evento
		} else if len(env.Event) > 0 {
			raw = env.Event
		}
	}
	e, err := models.DecodeEvent(raw)
	if err != nil {
		return models.EventProposal{}, malformed("event", err)
	}
	return e, nil
}

// UploadImage attaches an image to a proposal and returns its public URL.
func (c *HTTPClient) UploadImage(ctx context.Context, id int64, fileName string, content io.Reader) (string, error) {
	body := &Multipart{Files: []FilePart{{Field: "imagen", FileName: fileName, Content: content}}}

	var resp struct {
		ImageURL string `json:"imageUrl"`
		URL      string `json:"url"`
	}
	if err := c.Do(ctx, http.MethodPost, fmt.Sprintf("/eventos/%d/imagen", id), body, &resp); err != nil {
		return "", err
	}
	if resp.ImageURL != "" {
		return resp.ImageURL, nil
	}
	if resp.URL != "" {
		return resp.URL, nil
	}
	return "", malformed("upload response", errors.New("image url missing"))
}

func (c *HTTPClient) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/notificaciones", nil, &raw); err != nil {
		return nil, err
	}
	n, err := models.DecodeNotifications(raw)
	if err != nil {
		return nil, malformed("notifications", err)
	}
	return n, nil
}
