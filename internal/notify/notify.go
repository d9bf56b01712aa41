// Package notify broadcasts which ledger collection changed so that every
// running controller can reload its snapshot.
package notify

import (
	"context"
	"fmt"
)

// Collection names carried by change notifications.
const (
	Suppliers = "suppliers"
	Purchases = "purchases"
	Payments  = "payments"
)

// Collections lists every known collection.
var Collections = []string{Suppliers, Purchases, Payments}

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "ledger:changes"

// Broker publishes change notifications and delivers them to subscribers.
// Subscribe returns a channel that is closed when ctx is done.
type Broker interface {
	Publish(ctx context.Context, collection string) error
	Subscribe(ctx context.Context) (<-chan string, error)
	Close() error
}

func validCollection(c string) error {
	for _, known := range Collections {
		if c == known {
			return nil
		}
	}
	return fmt.Errorf("notify: unknown collection %q", c)
}
