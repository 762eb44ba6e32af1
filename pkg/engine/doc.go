/*
Package engine wires the storefront components together from a config.Config.

New acquires resources in order and Close releases them in reverse:

  1. events.Broker
  2. storage.BoltStore at <dataDir>/storefront.db
  3. the remote backend named by remote.kind
  4. notify.Channel
  5. session.Session, cart.Store and session.Handler
  6. checkout.Coordinator, with SendGrid confirmation mail when configured

Start restores the persisted identity and attaches the handler, which loads
the matching cart. A failure part-way through New closes whatever was already
open.

	e, err := engine.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.Start(ctx); err != nil {
		return err
	}
*/
package engine
