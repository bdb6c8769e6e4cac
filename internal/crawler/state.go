package crawler

// State is the engine's position in its lifecycle.
type State string

// Engine lifecycle states. Drained, StoppedByLimit, and Interrupted are
// the terminal outcomes of the running loop; all three pass through
// Finalizing so the final checkpoint and index are always written.
const (
	// StateInit means the engine has not started running.
	StateInit State = "INIT"

	// StateRunning means the main loop is processing targets.
	StateRunning State = "RUNNING"

	// StateDrained means the frontier emptied.
	StateDrained State = "DRAINED"

	// StateStoppedByLimit means the page limit was reached.
	StateStoppedByLimit State = "STOPPED_BY_LIMIT"

	// StateInterrupted means a shutdown signal was observed.
	StateInterrupted State = "INTERRUPTED"

	// StateFinalizing means the final checkpoint and index are being
	// written.
	StateFinalizing State = "FINALIZING"

	// StateTerminated means the run is complete.
	StateTerminated State = "TERMINATED"
)
