package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/km-arc/go-webbeans/framework/contexts"
	"github.com/km-arc/go-webbeans/framework/metadata"
)

// DefaultSessionCookie names the session cookie when none is configured.
const DefaultSessionCookie = "WEBBEANS_SESSION"

// ContextOptions configure ContextMiddleware.
type ContextOptions struct {
	CookieName string
	// Secure marks the session cookie Secure.
	Secure bool
	Logger *zap.Logger
}

// ContextMiddleware runs every request inside its own request, session
// and conversation contexts.
//
// A client without a valid session cookie gets a new session. The
// conversation named by the cid parameter is restored; when it does not
// exist or another request holds it, the request proceeds in a fresh
// transient conversation. The request context is stopped once the
// handler returns, which also ends transient conversations.
func ContextMiddleware(svc *contexts.Service, opts ContextOptions) func(http.Handler) http.Handler {
	if opts.CookieName == "" {
		opts.CookieName = DefaultSessionCookie
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, _ := contexts.WithUnit(r.Context())
			r = r.WithContext(ctx)
			req := NewRequest(r)

			sid := req.SessionID(opts.CookieName)
			if sid == "" {
				sid = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     opts.CookieName,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			if err := svc.StartContext(ctx, metadata.Request, nil); err != nil {
				NewResponse(w).Fail(err)
				return
			}
			defer func() {
				if err := svc.StopContext(ctx, metadata.Request, nil); err != nil {
					log.Error("stopping request context", zap.Error(err))
				}
			}()

			if err := svc.StartContext(ctx, metadata.Session, contexts.SessionParams{ID: sid}); err != nil {
				NewResponse(w).Fail(err)
				return
			}

			if svc.SupportsContext(metadata.Conversation) {
				cid := req.ConversationID()
				err := svc.StartContext(ctx, metadata.Conversation, contexts.ConversationParams{ID: cid})
				switch {
				case err == nil:
				case errors.Is(err, contexts.ErrNonexistentConversation), errors.Is(err, contexts.ErrBusyConversation):
					log.Debug("continuing in a transient conversation",
						zap.String("cid", cid), zap.String("path", r.URL.Path), zap.Error(err))
				default:
					NewResponse(w).Fail(err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
