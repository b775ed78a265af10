package outbox

// LocalNotifier wakes a relay running in the same process as the writer.
// Stores without LISTEN/NOTIFY use it so events go out right after commit.
type LocalNotifier struct {
	notes chan string
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{notes: make(chan string, 1)}
}

// Notify asks the relay to flush. Calls coalesce while one is pending.
func (n *LocalNotifier) Notify() {
	select {
	case n.notes <- "":
	default:
	}
}

func (n *LocalNotifier) Notifications() <-chan string { return n.notes }
func (n *LocalNotifier) Ping() error                  { return nil }
func (n *LocalNotifier) Close() error                 { return nil }
