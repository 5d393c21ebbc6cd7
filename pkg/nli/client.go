package nli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"uml-nli-be/pkg/intent"
	"uml-nli-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrServiceUnavailable = errors.New("nli service unavailable")
	ErrRequestFailed      = errors.New("nli request failed")
	ErrTimeout            = errors.New("nli request timed out")
)

var tracer = otel.Tracer("uml-nli-be/pkg/nli")

// Classification is the outcome of the intent endpoint.
type Classification struct {
	Intent intent.Intent
	Label  string
}

// Client talks to the natural-language classification service. It never
// retries; every failure is surfaced to the caller once.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, requestTimeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping reports whether the service is live. 204 and 404 both count as live;
// anything else, including the timeout elapsing first, does not.
func (c *Client) Ping(ctx context.Context, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound
}

func (c *Client) Classify(ctx context.Context, text string) (Classification, error) {
	ctx, span := tracer.Start(ctx, "nli.classify")
	defer span.End()

	var body struct {
		Intent string `json:"intent"`
	}
	q := url.Values{"user_query": {text}}
	if err := c.do(ctx, http.MethodGet, "/intent/", q, nil, &body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Classification{}, err
	}

	span.SetAttributes(attribute.String("nli.intent", body.Intent))
	return Classification{Intent: intent.Parse(body.Intent), Label: body.Intent}, nil
}

type endpoint struct {
	path      string
	withModel bool
}

// endpoints routes slot extraction per intent. Delete shares the focus query.
var endpoints = map[intent.Intent]endpoint{
	intent.CreateContainer:  {"/create-container/", false},
	intent.AddAttribute:     {"/add-value/", true},
	intent.AddMethod:        {"/add-value/", true},
	intent.ChangeName:       {"/update-value/", false},
	intent.ChangeVisibility: {"/update-value/", false},
	intent.ChangeDatatype:   {"/update-value/", false},
	intent.AddRelation:      {"/add-relation/", true},
	intent.Delete:           {"/focus/", true},
	intent.Focus:            {"/focus/", true},
	intent.Move:             {"/move/", true},
}

// ExtractSlots queries the intent-specific endpoint. Intents without slots
// (undo, unknown) return an error.
func (c *Client) ExtractSlots(ctx context.Context, text string, in intent.Intent, snap *store.ModelSnapshot) (intent.Slots, error) {
	ep, ok := endpoints[in]
	if !ok {
		return nil, fmt.Errorf("%w: no slot endpoint for %s", ErrRequestFailed, in)
	}

	ctx, span := tracer.Start(ctx, "nli.extract_slots")
	defer span.End()
	span.SetAttributes(attribute.String("nli.intent", in.String()), attribute.String("nli.path", ep.path))

	var payload interface{}
	if ep.withModel {
		payload = modelBody(snap)
	}

	slots := intent.Slots{}
	q := url.Values{"user_query": {text}}
	if err := c.do(ctx, http.MethodPost, ep.path, q, payload, &slots); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return slots, nil
}

// FindID asks the service for the id of the element called name within the
// given category. An empty string means nothing matched.
func (c *Client) FindID(ctx context.Context, name, category string, snap *store.ModelSnapshot) (string, error) {
	ctx, span := tracer.Start(ctx, "nli.find_id")
	defer span.End()
	span.SetAttributes(attribute.String("nli.category", category))

	var body struct {
		ID *string `json:"id"`
	}
	q := url.Values{"name": {name}, "element_type": {category}}
	if err := c.do(ctx, http.MethodPost, "/find-id", q, modelBody(snap), &body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	if body.ID == nil {
		return "", nil
	}
	return *body.ID, nil
}

type modelPayload struct {
	UML       json.RawMessage `json:"uml_model"`
	Unotation json.RawMessage `json:"unotation_model"`
}

func modelBody(snap *store.ModelSnapshot) modelPayload {
	if snap == nil {
		return modelPayload{}
	}
	return modelPayload{UML: snap.UML, Unotation: snap.Unotation}
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, payload, out interface{}) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%w: failed to marshal request: %v", ErrRequestFailed, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportError(path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned %d: %s", ErrRequestFailed, path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %s returned an undecodable body: %v", ErrRequestFailed, path, err)
	}
	return nil
}

func classifyTransportError(path string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, path, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrServiceUnavailable, path, err)
}
