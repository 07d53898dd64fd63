package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ConversationParam is the query or form parameter that propagates a
// long-running conversation between requests.
const ConversationParam = "cid"

// Request wraps *http.Request with input helpers.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// ── Binding ──────────────────────────────────────────────────────────────────

// Bind decodes a JSON body into v. Unknown fields are rejected.
func (req *Request) Bind(v any) error {
	if !strings.Contains(req.raw.Header.Get("Content-Type"), "application/json") {
		return errors.New("request body must be application/json")
	}
	defer req.raw.Body.Close()
	dec := json.NewDecoder(req.raw.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	return nil
}

// ── Input helpers ────────────────────────────────────────────────────────────

// Input returns a single input value (query string OR post body).
func (req *Request) Input(key string, fallback ...string) string {
	_ = req.raw.ParseForm()
	v := req.raw.FormValue(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// Query returns a query-string value.
func (req *Request) Query(key string, fallback ...string) string {
	v := req.raw.URL.Query().Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// RouteParam returns a URL route parameter (chi).
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// ConversationID returns the propagated conversation id, empty when the
// request starts a new transient conversation.
func (req *Request) ConversationID() string {
	return strings.TrimSpace(req.Input(ConversationParam))
}

// SessionID returns the session id carried by cookie, empty when the
// cookie is absent or not a uuid.
func (req *Request) SessionID(cookie string) string {
	c, err := req.raw.Cookie(cookie)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}
