// Package http connects the container's contexts to net/http.
//
// # Context middleware
//
// ContextMiddleware gives every request its own contexts.Unit and starts
// the request, session and conversation contexts before the handler runs:
//
//	r := routing.New(log)
//	r.Group(func(app *routing.Router) {
//	    app.Middleware(gohttp.ContextMiddleware(c.Contexts(), gohttp.ContextOptions{
//	        CookieName: cfg.Session.CookieName,
//	        Logger:     log,
//	    }))
//	    app.Get("/cart", cartHandler)
//	})
//
// The session id travels in a cookie and is replaced when it is not a
// uuid. A long-running conversation is resumed with ?cid=<id>; an unknown
// or busy id falls back to a transient conversation instead of failing
// the request.
//
// # Request and Response
//
//	req := gohttp.NewRequest(r)
//	var body struct{ Timeout string `json:"timeout"` }
//	err := req.Bind(&body)        // JSON only, unknown fields rejected
//	cid := req.ConversationID()
//
//	res := gohttp.NewResponse(w)
//	res.Success(v)                // 200 {"data": v}
//	res.NotFound("no bean")       // 404 {"message": "no bean"}
//	res.Fail(err)                 // status from StatusFor(err)
//
// # Inspection
//
// Inspector mounts read and maintenance endpoints under /_webbeans: the
// deployed beans with their interceptor stacks, live conversations, a
// manual timeout sweep, and session passivation through a
// passivation.Store.
package http
