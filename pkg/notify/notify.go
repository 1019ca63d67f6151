package notify

// Notifier pushes order lifecycle events to an external channel.
// Best-effort: implementations must not block the request path and give
// no delivery guarantee.
type Notifier interface {
	OrderEvent(orderID int64, number string, event string)
}

type Nop struct{}

func (Nop) OrderEvent(int64, string, string) {}
