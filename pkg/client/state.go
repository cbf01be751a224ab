package client

// opState tracks where one operation stands on its connection. Transitions
// run Idle → Connected → (AwaitingResponse → Processing)* → Completed|Failed;
// the per-request loop repeats the middle pair for multi-file batches.
type opState int

const (
	stateIdle opState = iota
	stateConnected
	stateAwaitingResponse
	stateProcessing
	stateCompleted
	stateFailed
)

func (s opState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateConnected:
		return "connected"
	case stateAwaitingResponse:
		return "awaiting-response"
	case stateProcessing:
		return "processing"
	case stateCompleted:
		return "completed"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
