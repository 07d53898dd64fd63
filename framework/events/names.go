package events

// Scope lifecycle notifications. The payload is the metadata.ScopeKind.
const (
	ContextInitialized = "context.initialized"
	ContextDestroyed   = "context.destroyed"
)

// Conversation notifications. The payload is the conversation id.
const (
	ConversationBegun    = "conversation.begun"
	ConversationEnded    = "conversation.ended"
	ConversationTimedOut = "conversation.timedOut"
)

// Deployment notifications.
const (
	BeanDiscovered            = "bean.discovered"
	AfterDeploymentValidation = "deployment.validated"
	BeforeShutdown            = "container.beforeShutdown"
)
