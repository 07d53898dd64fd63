package container

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-webbeans/framework/contexts"
	"github.com/km-arc/go-webbeans/framework/interceptor"
	"github.com/km-arc/go-webbeans/framework/metadata"
	"github.com/km-arc/go-webbeans/framework/passivation"
)

// PassivateSession runs the pre-passivate callbacks of every passivation
// capable instance of the session, saves their JSON encoding to store and
// evicts the session. Instances that are not passivation capable are
// dropped without their pre-destroy callbacks.
func (c *Container) PassivateSession(ctx context.Context, sessionID string, store passivation.Store, ttl time.Duration) error {
	sess, ok := c.contexts.Session(sessionID)
	if !ok {
		return fmt.Errorf("%w: session %s", contexts.ErrContextNotActive, sessionID)
	}
	snap := &passivation.Snapshot{
		SessionID:    sessionID,
		Beans:        make(map[string]json.RawMessage),
		PassivatedAt: time.Now().UTC(),
	}
	for _, inst := range sess.Instances() {
		h, ok := inst.Value.(*interceptor.Handler)
		if !ok || !h.Bean().PassivationCapable {
			continue
		}
		if err := h.Lifecycle(ctx, metadata.PrePassivate); err != nil {
			return fmt.Errorf("pre-passivate of %s: %w", h.Bean().ID, err)
		}
		data, err := json.Marshal(h.Target())
		if err != nil {
			return fmt.Errorf("encoding %s: %w", h.Bean().ID, err)
		}
		snap.Beans[h.Bean().ID] = data
	}
	if err := store.Save(ctx, snap, ttl); err != nil {
		return err
	}
	c.contexts.EvictSession(ctx, sessionID)
	c.log.Info("session passivated", zap.String("session", sessionID), zap.Int("beans", len(snap.Beans)))
	return nil
}

// ActivateSession restores a passivated session: it starts the session
// context, rebuilds each stored instance, decodes its state into it and
// runs the post-activate callbacks. The snapshot is deleted afterwards.
func (c *Container) ActivateSession(ctx context.Context, sessionID string, store passivation.Store) error {
	snap, err := store.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := c.contexts.StartContext(ctx, metadata.Session, contexts.SessionParams{ID: sessionID}); err != nil {
		return err
	}
	sess, ok := c.contexts.Session(sessionID)
	if !ok {
		return fmt.Errorf("%w: session %s", contexts.ErrContextNotActive, sessionID)
	}

	ids := make([]string, 0, len(snap.Beans))
	for id := range snap.Beans {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		b, ok := c.Bean(id)
		if !ok || !b.Enabled() {
			c.log.Warn("passivated bean is no longer deployed", zap.String("bean", id))
			continue
		}
		cb := c.contextuals[b]
		cc := contexts.NewCreationalContext(cb)
		h, err := c.create(ctx, b, cc, false)
		if err != nil {
			return fmt.Errorf("activating %s: %w", id, err)
		}
		if err := json.Unmarshal(snap.Beans[id], h.Target()); err != nil {
			return fmt.Errorf("decoding %s: %w", id, err)
		}
		if err := h.Lifecycle(ctx, metadata.PostActivate); err != nil {
			return fmt.Errorf("post-activate of %s: %w", id, err)
		}
		sess.Put(cb, h, cc)
	}
	if err := store.Delete(ctx, sessionID); err != nil {
		return err
	}
	c.log.Info("session activated", zap.String("session", sessionID), zap.Int("beans", len(ids)))
	return nil
}
