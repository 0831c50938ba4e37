package realtime

import "sync"

// Emit is one recorded broadcast.
type Emit struct {
	Room    string
	Event   string
	Payload any
}

// Recorder is a Notifier that captures emits for assertions in tests.
type Recorder struct {
	mu    sync.Mutex
	emits []Emit
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) EmitToChat(chatID uint64, event string, payload any) {
	r.record(ChatRoom(chatID), event, payload)
}

func (r *Recorder) EmitToUser(userID uint64, event string, payload any) {
	r.record(UserRoom(userID), event, payload)
}

func (r *Recorder) record(room, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emits = append(r.emits, Emit{Room: room, Event: event, Payload: payload})
}

// Emits returns a copy of everything recorded so far.
func (r *Recorder) Emits() []Emit {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Emit, len(r.emits))
	copy(out, r.emits)
	return out
}

// EventsIn returns the event names broadcast to the given room, in order.
func (r *Recorder) EventsIn(room string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.emits {
		if e.Room == room {
			out = append(out, e.Event)
		}
	}
	return out
}
