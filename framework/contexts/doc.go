// Package contexts manages the live instances of every scope.
//
// A Context stores the instances of one scope for one governing unit and
// destroys them newest first. The Service decides which Context is
// current: request and dependent contexts come from the Unit attached to
// a context.Context by WithUnit, session contexts are looked up by id,
// conversation contexts come from the ConversationManager, and the
// application and singleton contexts are process-wide.
//
// The request glue calls StartContext and StopContext at request and
// session boundaries:
//
//	ctx, _ := contexts.WithUnit(r.Context())
//	_ = svc.StartContext(ctx, metadata.Request, nil)
//	_ = svc.StartContext(ctx, metadata.Session, contexts.SessionParams{ID: sid})
//	err := svc.StartContext(ctx, metadata.Conversation, contexts.ConversationParams{ID: cid})
//	defer svc.StopContext(ctx, metadata.Request, nil)
package contexts
