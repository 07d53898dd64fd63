package http

import (
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/km-arc/go-webbeans/framework/bean"
	"github.com/km-arc/go-webbeans/framework/container"
	"github.com/km-arc/go-webbeans/framework/contexts"
	"github.com/km-arc/go-webbeans/framework/metadata"
	"github.com/km-arc/go-webbeans/framework/passivation"
	"github.com/km-arc/go-webbeans/framework/validation"
	"github.com/km-arc/go-webbeans/routing"
)

// InspectPrefix is where Inspector mounts its routes.
const InspectPrefix = "/_webbeans"

// Inspector serves read and maintenance endpoints over a running
// container:
//
//	GET  /_webbeans/beans
//	GET  /_webbeans/beans/{id}
//	GET  /_webbeans/conversations
//	POST /_webbeans/conversations/sweep
//	PUT  /_webbeans/conversations/{cid}/timeout   {"timeout": "10m"}
//	GET  /_webbeans/sessions
//	POST /_webbeans/sessions/{handle}/passivate
//	POST /_webbeans/sessions/{handle}/activate
//
// Sessions are never shown by id: the id is the session cookie value.
// Each session is listed under a handle derived from its id with a key
// private to the inspector.
type Inspector struct {
	c     *container.Container
	store passivation.Store
	ttl   time.Duration
	now   func() time.Time
	log   *zap.Logger

	key        uuid.UUID
	mu         sync.Mutex
	passivated map[string]string // handle -> session id
}

// NewInspector returns an inspector. A nil store disables the session
// endpoints.
func NewInspector(c *container.Container, store passivation.Store, ttl time.Duration) *Inspector {
	return &Inspector{
		c:          c,
		store:      store,
		ttl:        ttl,
		now:        time.Now,
		log:        c.Logger(),
		key:        uuid.New(),
		passivated: make(map[string]string),
	}
}

// Handle returns the handle sessionID is listed under.
func (i *Inspector) Handle(sessionID string) string {
	return uuid.NewSHA1(i.key, []byte(sessionID)).String()
}

func (i *Inspector) liveSession(handle string) (string, bool) {
	for _, sid := range i.c.Contexts().SessionIDs() {
		if i.Handle(sid) == handle {
			return sid, true
		}
	}
	return "", false
}

// Mount registers the routes on r under InspectPrefix.
func (i *Inspector) Mount(r *routing.Router) {
	r.Prefix(InspectPrefix, func(api *routing.Router) {
		api.Get("/beans", i.beans)
		api.Get("/beans/{id}", i.bean)
		api.Get("/conversations", i.conversations)
		api.Post("/conversations/sweep", i.sweep)
		api.Put("/conversations/{cid}/timeout", i.timeout)
		if i.store != nil {
			api.Get("/sessions", i.sessions)
			api.Post("/sessions/{handle}/passivate", i.passivate)
			api.Post("/sessions/{handle}/activate", i.activate)
		}
	})
}

// ── Views ────────────────────────────────────────────────────────────────────

// BeanView is the JSON form of a bean.
type BeanView struct {
	ID           string              `json:"id"`
	Kind         string              `json:"kind"`
	Types        []string            `json:"types"`
	Scope        string              `json:"scope"`
	Qualifiers   []string            `json:"qualifiers"`
	Name         string              `json:"name,omitempty"`
	Enabled      bool                `json:"enabled"`
	Alternative  bool                `json:"alternative,omitempty"`
	Specialized  bool                `json:"specialized,omitempty"`
	Interceptors map[string][]string `json:"interceptors,omitempty"`
	Decorators   []string            `json:"decorators,omitempty"`
}

// NewBeanView describes b.
func NewBeanView(b *bean.Bean) BeanView {
	v := BeanView{
		ID:          b.ID,
		Kind:        b.Kind.String(),
		Types:       b.Types,
		Scope:       string(b.Scope),
		Name:        b.Name,
		Enabled:     b.Enabled(),
		Alternative: b.Alternative,
		Specialized: b.Specialized(),
	}
	for _, q := range b.Qualifiers {
		v.Qualifiers = append(v.Qualifiers, q.String())
	}
	for _, kind := range metadata.InterceptionTypes {
		for _, d := range b.Stack[kind] {
			if v.Interceptors == nil {
				v.Interceptors = make(map[string][]string)
			}
			v.Interceptors[kind.String()] = append(v.Interceptors[kind.String()], d.String())
		}
	}
	for _, d := range b.Decorators {
		v.Decorators = append(v.Decorators, d.ID)
	}
	return v
}

// ConversationView is the JSON form of a conversation. Session is the
// inspector handle of the owning session.
type ConversationView struct {
	ID         string    `json:"id"`
	Session    string    `json:"session"`
	Transient  bool      `json:"transient"`
	Timeout    string    `json:"timeout"`
	LastActive time.Time `json:"last_active"`
	InUse      int32     `json:"in_use"`
	Beans      int       `json:"beans"`
}

func (i *Inspector) conversationView(c *contexts.Conversation) ConversationView {
	return ConversationView{
		ID:         c.ID(),
		Session:    i.Handle(c.SessionID()),
		Transient:  c.IsTransient(),
		Timeout:    c.Timeout().String(),
		LastActive: c.LastActive(),
		InUse:      c.InUse(),
		Beans:      c.Context().Len(),
	}
}

// ── Handlers ─────────────────────────────────────────────────────────────────

func (i *Inspector) beans(w http.ResponseWriter, r *http.Request) {
	beans := i.c.Beans()
	out := make([]BeanView, 0, len(beans))
	for _, b := range beans {
		out = append(out, NewBeanView(b))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	NewResponse(w).Success(out)
}

func (i *Inspector) bean(w http.ResponseWriter, r *http.Request) {
	id := NewRequest(r).RouteParam("id")
	b, ok := i.c.Bean(id)
	if !ok {
		NewResponse(w).NotFound("no bean " + id)
		return
	}
	NewResponse(w).Success(NewBeanView(b))
}

func (i *Inspector) conversations(w http.ResponseWriter, r *http.Request) {
	convs := i.c.Contexts().Conversations().Conversations()
	out := make([]ConversationView, 0, len(convs))
	for _, c := range convs {
		out = append(out, i.conversationView(c))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	NewResponse(w).Success(out)
}

func (i *Inspector) sweep(w http.ResponseWriter, r *http.Request) {
	removed := i.c.Contexts().Conversations().Sweep(r.Context(), i.now())
	if removed == nil {
		removed = []string{}
	}
	NewResponse(w).Success(map[string]any{"removed": removed})
}

func (i *Inspector) timeout(w http.ResponseWriter, r *http.Request) {
	req := NewRequest(r)
	res := NewResponse(w)

	var body struct {
		Timeout string `json:"timeout"`
	}
	if err := req.Bind(&body); err != nil {
		res.Error(http.StatusBadRequest, err.Error())
		return
	}
	v := validation.Make(map[string]string{"timeout": body.Timeout}, validation.Rules{"timeout": "required|duration"})
	if v.Fails() {
		res.ValidationError(v.Errors())
		return
	}

	cid := req.RouteParam("cid")
	conv := findConversation(i.c.Contexts().Conversations(), cid)
	if conv == nil {
		res.NotFound("no conversation " + cid)
		return
	}
	d, _ := time.ParseDuration(body.Timeout)
	conv.SetTimeout(d)
	res.Success(i.conversationView(conv))
}

func findConversation(m *contexts.ConversationManager, id string) *contexts.Conversation {
	for _, c := range m.Conversations() {
		if c.ID() == id {
			return c
		}
	}
	return nil
}

func (i *Inspector) sessions(w http.ResponseWriter, r *http.Request) {
	ids := i.c.Contexts().SessionIDs()
	handles := make([]string, 0, len(ids))
	for _, sid := range ids {
		handles = append(handles, i.Handle(sid))
	}
	sort.Strings(handles)
	NewResponse(w).Success(handles)
}

func (i *Inspector) passivate(w http.ResponseWriter, r *http.Request) {
	handle := NewRequest(r).RouteParam("handle")
	sid, ok := i.liveSession(handle)
	if !ok {
		NewResponse(w).NotFound("no live session " + handle)
		return
	}
	err := i.c.PassivateSession(r.Context(), sid, i.store, i.ttl)
	switch {
	case err == nil:
		i.mu.Lock()
		i.passivated[handle] = sid
		i.mu.Unlock()
		i.log.Info("session passivated", zap.String("session", handle))
		NewResponse(w).NoContent()
	case errors.Is(err, contexts.ErrContextNotActive):
		NewResponse(w).NotFound("no live session " + handle)
	default:
		NewResponse(w).Fail(err)
	}
}

func (i *Inspector) activate(w http.ResponseWriter, r *http.Request) {
	handle := NewRequest(r).RouteParam("handle")
	i.mu.Lock()
	sid, ok := i.passivated[handle]
	i.mu.Unlock()
	if !ok {
		NewResponse(w).NotFound("no passivated session " + handle)
		return
	}
	err := i.c.ActivateSession(r.Context(), sid, i.store)
	if err == nil || errors.Is(err, passivation.ErrNotFound) {
		i.mu.Lock()
		delete(i.passivated, handle)
		i.mu.Unlock()
	}
	switch {
	case err == nil:
		i.log.Info("session activated", zap.String("session", handle))
		NewResponse(w).NoContent()
	case errors.Is(err, passivation.ErrNotFound):
		NewResponse(w).NotFound("no passivated session " + handle)
	default:
		NewResponse(w).Fail(err)
	}
}
