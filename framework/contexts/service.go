package contexts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-webbeans/framework/events"
	"github.com/km-arc/go-webbeans/framework/metadata"
)

// SessionParams start or stop a session context.
type SessionParams struct {
	ID string
}

// ConversationParams start a conversation context. ID is the propagated
// conversation id, empty for a new transient conversation.
type ConversationParams struct {
	ID string
}

// Options configure a Service.
type Options struct {
	Scopes *metadata.ScopeTable
	Bus    events.Bus
	Logger *zap.Logger

	SupportsConversation bool
	ConversationTimeout  time.Duration
	// RetainLongRunning keeps long-running conversations across requests.
	// When false, stopping a request removes every conversation of its
	// session.
	RetainLongRunning bool

	Now func() time.Time
}

type session struct {
	once sync.Once
	ctx  *Context
}

// Service owns every context of the process: per-request contexts through
// the Unit carried in context.Context, sessions by id, conversations in
// the ConversationManager, and the process-wide application and singleton
// contexts.
type Service struct {
	scopes *metadata.ScopeTable
	bus    events.Bus
	log    *zap.Logger
	now    func() time.Time

	supportsConversation bool
	retainLongRunning    bool

	sessions      sync.Map // session id → *session
	conversations *ConversationManager

	mu          sync.Mutex
	application *Context
	singleton   *Context // process-wide, shared like application
	dependent   *Context
	external    map[metadata.ScopeKind]*Context
}

// NewService returns a service with every context inactive.
func NewService(opts Options) *Service {
	if opts.Scopes == nil {
		opts.Scopes = metadata.DefaultScopes()
	}
	if opts.Bus == nil {
		opts.Bus = events.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Service{
		scopes:               opts.Scopes,
		bus:                  opts.Bus,
		log:                  opts.Logger,
		now:                  opts.Now,
		supportsConversation: opts.SupportsConversation,
		retainLongRunning:    opts.RetainLongRunning,
		conversations:        NewConversationManager(opts.ConversationTimeout, opts.Bus, opts.Logger),
		application:          NewContext(metadata.Application),
		singleton:            NewContext(metadata.Singleton),
		dependent:            NewContext(metadata.Dependent),
		external:             make(map[metadata.ScopeKind]*Context),
	}
	s.conversations.now = opts.Now
	s.dependent.SetActive(true)
	for _, kind := range opts.Scopes.Kinds() {
		if def, _ := opts.Scopes.Lookup(kind); def.External {
			s.external[kind] = NewContext(kind)
		}
	}
	return s
}

// Conversations is the conversation registry.
func (s *Service) Conversations() *ConversationManager { return s.conversations }

// Scopes is the scope table the service was built with.
func (s *Service) Scopes() *metadata.ScopeTable { return s.scopes }

// SupportsContext reports whether the service manages kind.
func (s *Service) SupportsContext(kind metadata.ScopeKind) bool {
	if kind == metadata.Conversation {
		return s.supportsConversation
	}
	_, err := s.scopes.Lookup(kind)
	return err == nil
}

// ── Start ───────────────────────────────────────────────────────────────────

// StartContext activates the context of kind for the caller. Request and
// conversation contexts need a Unit on ctx; see WithUnit.
//
// Starting a conversation with a propagated id that can not be restored
// returns ErrNonexistentConversation or ErrBusyConversation. Either way a
// fresh transient conversation is active afterwards.
func (s *Service) StartContext(ctx context.Context, kind metadata.ScopeKind, params any) error {
	switch kind {
	case metadata.Request:
		return s.startRequest(ctx)
	case metadata.Session:
		return s.startSession(ctx, params)
	case metadata.Conversation:
		return s.startConversation(ctx, params)
	case metadata.Application:
		s.startProcess(s.application)
		return nil
	case metadata.Singleton:
		s.startProcess(s.singleton)
		return nil
	case metadata.Dependent:
		return nil
	}
	if c, ok := s.external[kind]; ok {
		s.startProcess(c)
		return nil
	}
	_, err := s.scopes.Lookup(kind)
	return err
}

func (s *Service) startRequest(ctx context.Context) error {
	u, ok := UnitFrom(ctx)
	if !ok {
		return ErrNoUnit
	}
	c := NewContext(metadata.Request)
	c.SetActive(true)
	u.mu.Lock()
	u.request = c
	u.mu.Unlock()
	s.publish(events.ContextInitialized, metadata.Request, u)
	return nil
}

func (s *Service) startSession(ctx context.Context, params any) error {
	p, err := sessionParams(params)
	if err != nil {
		return err
	}
	if p.ID == "" {
		return errors.New("contexts: session id is required")
	}
	v, _ := s.sessions.LoadOrStore(p.ID, &session{})
	sess := v.(*session)
	created := false
	sess.once.Do(func() {
		sess.ctx = NewContext(metadata.Session)
		sess.ctx.SetActive(true)
		created = true
	})

	if u, ok := UnitFrom(ctx); ok {
		u.mu.Lock()
		u.sessionID, u.session = p.ID, sess.ctx
		u.mu.Unlock()
	}
	if created {
		s.log.Debug("session started", zap.String("session", p.ID))
		s.bus.PublishWithMetadata(events.ContextInitialized, metadata.Session, events.Metadata{SessionID: p.ID})
	}
	return nil
}

func (s *Service) startConversation(ctx context.Context, params any) error {
	if !s.supportsConversation {
		return nil
	}
	u, ok := UnitFrom(ctx)
	if !ok {
		return ErrNoUnit
	}
	sid := u.SessionID()
	if sid == "" {
		return fmt.Errorf("%w: conversation needs an active session", ErrContextNotActive)
	}
	if u.Conversation() != nil {
		return nil
	}
	var cid string
	if params != nil {
		p, err := conversationParams(params)
		if err != nil {
			return err
		}
		cid = p.ID
	}
	if cid == "" {
		s.attachConversation(u, s.conversations.Create(sid))
		return nil
	}

	conv := s.conversations.Find(cid, sid)
	if conv == nil || conv.IsTransient() {
		s.attachConversation(u, s.conversations.Create(sid))
		s.log.Warn("propagated conversation can not be restored, using a new transient conversation",
			zap.String("cid", cid), zap.String("session", sid))
		return fmt.Errorf("%w: cid=%s", ErrNonexistentConversation, cid)
	}
	if conv.Use() > 1 {
		conv.Release()
		s.attachConversation(u, s.conversations.Create(sid))
		s.log.Warn("propagated conversation is used by another request, using a new transient conversation",
			zap.String("cid", cid), zap.String("session", sid))
		return fmt.Errorf("%w: cid=%s", ErrBusyConversation, cid)
	}
	conv.Touch(s.now())
	u.mu.Lock()
	u.conversation = conv
	u.mu.Unlock()
	return nil
}

func (s *Service) attachConversation(u *Unit, c *Conversation) {
	c.Use()
	u.mu.Lock()
	u.conversation = c
	u.mu.Unlock()
}

// startProcess activates a process-wide context once. Concurrent callers
// race on the service lock, not on the context.
func (s *Service) startProcess(c *Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.IsActive() {
		return
	}
	c.SetActive(true)
	s.bus.Publish(events.ContextInitialized, c.Scope())
}

// ── Stop ────────────────────────────────────────────────────────────────────

// StopContext destroys the instances of kind held for the caller and
// deactivates the context.
//
// Stopping the request context first cleans up the conversations of the
// attached session, then destroys the request instances.
func (s *Service) StopContext(ctx context.Context, kind metadata.ScopeKind, params any) error {
	switch kind {
	case metadata.Request:
		return s.stopRequest(ctx)
	case metadata.Session:
		return s.stopSession(ctx, params)
	case metadata.Conversation:
		return s.stopConversation(ctx)
	case metadata.Application:
		s.stopProcess(ctx, s.application)
		return nil
	case metadata.Singleton:
		s.stopProcess(ctx, s.singleton)
		return nil
	case metadata.Dependent:
		return nil
	}
	if c, ok := s.external[kind]; ok {
		s.stopProcess(ctx, c)
		return nil
	}
	_, err := s.scopes.Lookup(kind)
	return err
}

func (s *Service) stopRequest(ctx context.Context) error {
	u, ok := UnitFrom(ctx)
	if !ok {
		return ErrNoUnit
	}
	if s.supportsConversation {
		s.cleanupConversations(ctx, u)
	}

	u.mu.Lock()
	req := u.request
	u.request = nil
	u.mu.Unlock()
	if req != nil {
		req.Destroy(ctx)
		s.publish(events.ContextDestroyed, metadata.Request, u)
	}

	u.mu.Lock()
	u.session, u.sessionID = nil, ""
	u.mu.Unlock()
	return nil
}

// cleanupConversations runs before the request context is torn down.
func (s *Service) cleanupConversations(ctx context.Context, u *Unit) {
	u.mu.Lock()
	sid, conv := u.sessionID, u.conversation
	u.conversation = nil
	u.mu.Unlock()
	if sid == "" {
		return
	}

	if !s.retainLongRunning {
		if n := s.conversations.DestroyConversationContextWithSessionID(ctx, sid); n > 0 {
			s.log.Debug("conversations removed at request end", zap.String("session", sid), zap.Int("count", n))
		}
		return
	}
	if conv == nil {
		return
	}
	conv.Release()
	if conv.IsTransient() {
		if s.conversations.Remove(conv) {
			conv.Context().Destroy(ctx)
		}
		return
	}
	conv.Touch(s.now())
}

func (s *Service) stopSession(ctx context.Context, params any) error {
	p, err := sessionParams(params)
	if err != nil {
		return err
	}
	u, hasUnit := UnitFrom(ctx)
	if p.ID == "" && hasUnit {
		p.ID = u.SessionID()
	}
	if p.ID == "" {
		return errors.New("contexts: session id is required")
	}

	s.destroySession(ctx, p.ID)

	if hasUnit {
		u.mu.Lock()
		if u.sessionID == p.ID {
			u.session, u.sessionID, u.conversation = nil, "", nil
		}
		u.mu.Unlock()
	}
	return nil
}

func (s *Service) destroySession(ctx context.Context, id string) {
	s.conversations.DestroyConversationContextWithSessionID(ctx, id)
	v, ok := s.sessions.LoadAndDelete(id)
	if !ok {
		return
	}
	sess := v.(*session)
	sess.once.Do(func() {})
	if sess.ctx != nil {
		sess.ctx.Destroy(ctx)
	}
	s.log.Debug("session destroyed", zap.String("session", id))
	s.bus.PublishWithMetadata(events.ContextDestroyed, metadata.Session, events.Metadata{SessionID: id})
}

// EvictSession forgets a session without destroying its instances, as
// after passivation. Conversations of the session are destroyed.
func (s *Service) EvictSession(ctx context.Context, id string) bool {
	s.conversations.DestroyConversationContextWithSessionID(ctx, id)
	v, ok := s.sessions.LoadAndDelete(id)
	if !ok {
		return false
	}
	sess := v.(*session)
	sess.once.Do(func() {})
	if sess.ctx != nil {
		sess.ctx.SetActive(false)
	}
	if u, ok := UnitFrom(ctx); ok {
		u.mu.Lock()
		if u.sessionID == id {
			u.session, u.sessionID, u.conversation = nil, "", nil
		}
		u.mu.Unlock()
	}
	s.log.Debug("session evicted", zap.String("session", id))
	return true
}

func (s *Service) stopConversation(ctx context.Context) error {
	u, ok := UnitFrom(ctx)
	if !ok {
		return ErrNoUnit
	}
	u.mu.Lock()
	conv := u.conversation
	u.conversation = nil
	u.mu.Unlock()
	if conv == nil {
		return nil
	}
	if s.conversations.Remove(conv) {
		conv.Context().Destroy(ctx)
	}
	return nil
}

func (s *Service) stopProcess(ctx context.Context, c *Context) {
	s.mu.Lock()
	active := c.IsActive()
	s.mu.Unlock()
	if !active {
		return
	}
	c.Destroy(ctx)
	s.bus.Publish(events.ContextDestroyed, c.Scope())
}

// ── Lookup ──────────────────────────────────────────────────────────────────

// CurrentContext returns the active context of kind for the caller.
func (s *Service) CurrentContext(ctx context.Context, kind metadata.ScopeKind) (*Context, bool) {
	u, hasUnit := UnitFrom(ctx)
	var c *Context
	switch kind {
	case metadata.Dependent:
		if hasUnit {
			return u.dependent, true
		}
		return s.dependent, true
	case metadata.Request:
		if hasUnit {
			u.mu.Lock()
			c = u.request
			u.mu.Unlock()
		}
	case metadata.Session:
		if hasUnit {
			u.mu.Lock()
			c = u.session
			u.mu.Unlock()
		}
	case metadata.Conversation:
		if s.supportsConversation && hasUnit {
			if conv := u.Conversation(); conv != nil {
				c = conv.Context()
			}
		}
	case metadata.Application:
		c = s.application
	case metadata.Singleton:
		c = s.singleton
	default:
		c = s.external[kind]
	}
	if c == nil || !c.IsActive() {
		return nil, false
	}
	return c, true
}

// CurrentConversation returns the conversation attached to the request.
func (s *Service) CurrentConversation(ctx context.Context) (*Conversation, error) {
	if !s.supportsConversation {
		return nil, fmt.Errorf("%w: conversations are disabled", ErrContextNotActive)
	}
	u, ok := UnitFrom(ctx)
	if !ok {
		return nil, ErrNoUnit
	}
	conv := u.Conversation()
	if conv == nil {
		return nil, fmt.Errorf("%w: %s", ErrContextNotActive, metadata.Conversation)
	}
	return conv, nil
}

// Session returns the context of a live session.
func (s *Service) Session(id string) (*Context, bool) {
	v, ok := s.sessions.Load(id)
	if !ok {
		return nil, false
	}
	sess := v.(*session)
	sess.once.Do(func() {})
	if sess.ctx == nil {
		return nil, false
	}
	return sess.ctx, true
}

// SessionIDs lists the live sessions.
func (s *Service) SessionIDs() []string {
	var ids []string
	s.sessions.Range(func(k, _ any) bool {
		ids = append(ids, k.(string))
		return true
	})
	return ids
}

// ── Teardown ────────────────────────────────────────────────────────────────

// Destroy tears everything down: the caller's request and conversation,
// every session, the process-wide contexts, and the conversation
// registry.
func (s *Service) Destroy(ctx context.Context) {
	if u, ok := UnitFrom(ctx); ok {
		u.mu.Lock()
		req, conv := u.request, u.conversation
		u.request, u.conversation, u.session, u.sessionID = nil, nil, nil, ""
		u.mu.Unlock()
		if conv != nil {
			conv.Context().Destroy(ctx)
		}
		if req != nil {
			req.Destroy(ctx)
		}
	}
	for _, id := range s.SessionIDs() {
		s.destroySession(ctx, id)
	}
	s.stopProcess(ctx, s.application)
	s.stopProcess(ctx, s.singleton)
	for _, c := range s.external {
		s.stopProcess(ctx, c)
	}
	s.conversations.DestroyAll(ctx)
}

func (s *Service) publish(name string, kind metadata.ScopeKind, u *Unit) {
	md := events.Metadata{SessionID: u.SessionID()}
	if conv := u.Conversation(); conv != nil {
		md.ConversationID = conv.ID()
	}
	s.bus.PublishWithMetadata(name, kind, md)
}

func sessionParams(params any) (SessionParams, error) {
	switch p := params.(type) {
	case SessionParams:
		return p, nil
	case *SessionParams:
		return *p, nil
	case string:
		return SessionParams{ID: p}, nil
	case nil:
		return SessionParams{}, nil
	}
	return SessionParams{}, fmt.Errorf("contexts: unexpected session params %T", params)
}

func conversationParams(params any) (ConversationParams, error) {
	switch p := params.(type) {
	case ConversationParams:
		return p, nil
	case *ConversationParams:
		return *p, nil
	case string:
		return ConversationParams{ID: p}, nil
	}
	return ConversationParams{}, fmt.Errorf("contexts: unexpected conversation params %T", params)
}
