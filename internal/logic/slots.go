package logic

import "time"

// Slots is the retained memory the persisted values live in.
type Slots interface {
	Read(i int) byte
	Write(i int, v byte)
}

// Slot indices.
const (
	SlotLockPosition       = 0
	SlotDoorPosition       = 1
	SlotLockElapsedSeconds = 2
	SlotLockElapsedCenti   = 3
	SlotDoorElapsedSeconds = 4
	SlotDoorElapsedCenti   = 5
	SlotIntent             = 6
	SlotRetained           = 7
	SlotWakeCause          = 8
)

// SlotNames names every slot. Two fields sharing an index fail to compile here.
var SlotNames = [...]string{
	SlotLockPosition:       "lock.position",
	SlotDoorPosition:       "door.position",
	SlotLockElapsedSeconds: "lock.elapsed.s",
	SlotLockElapsedCenti:   "lock.elapsed.cs",
	SlotDoorElapsedSeconds: "door.elapsed.s",
	SlotDoorElapsedCenti:   "door.elapsed.cs",
	SlotIntent:             "intent",
	SlotRetained:           "retained",
	SlotWakeCause:          "wake_cause",
}

// SlotCount is the number of slots a store must provide.
const SlotCount = len(SlotNames)

// Persisted position codes.
var positionCodes = [...]byte{
	Closed:        0,
	Open:          1,
	Closing:       2,
	Opening:       3,
	PausedClosing: 4,
	PausedOpening: 5,
}

func decodePosition(b byte) Position {
	for p, code := range positionCodes {
		if code == b {
			return Position(p)
		}
	}
	return Closed
}

// PositionSlot is an actuator position backed by one slot.
type PositionSlot struct {
	mem Slots
	idx int
	cur Position
}

// LoadPosition reads the position stored at idx. Unset or unknown values
// read as Closed.
func LoadPosition(mem Slots, idx int) *PositionSlot {
	return &PositionSlot{mem: mem, idx: idx, cur: decodePosition(mem.Read(idx))}
}

// Get returns the current position.
func (p *PositionSlot) Get() Position {
	return p.cur
}

// Set updates the position and its slot together.
func (p *PositionSlot) Set(v Position) {
	p.cur = v
	p.mem.Write(p.idx, positionCodes[v])
}

// IntentSlot is the transition intent backed by one slot.
type IntentSlot struct {
	mem Slots
	idx int
	cur Intent
}

// LoadIntent reads the intent stored at idx. Unknown values read as none.
func LoadIntent(mem Slots, idx int) *IntentSlot {
	cur := Intent(mem.Read(idx))
	if cur > IntentClose {
		cur = IntentNone
	}
	return &IntentSlot{mem: mem, idx: idx, cur: cur}
}

// Get returns the current intent.
func (i *IntentSlot) Get() Intent {
	return i.cur
}

// Set updates the intent and its slot together.
func (i *IntentSlot) Set(v Intent) {
	i.cur = v
	i.mem.Write(i.idx, byte(v))
}

// ElapsedTimer is time accumulated toward a transition threshold, kept as
// whole seconds plus hundredths in two adjacent slots. It does not clamp;
// callers keep values within [0, threshold].
type ElapsedTimer struct {
	mem      Slots
	secIdx   int
	centiIdx int
}

// NewElapsedTimer returns a timer over the two given slots.
func NewElapsedTimer(mem Slots, secIdx, centiIdx int) ElapsedTimer {
	return ElapsedTimer{mem: mem, secIdx: secIdx, centiIdx: centiIdx}
}

const centisecond = 10 * time.Millisecond

// Get reconstructs the stored duration.
func (e ElapsedTimer) Get() time.Duration {
	return time.Duration(e.mem.Read(e.secIdx))*time.Second +
		time.Duration(e.mem.Read(e.centiIdx))*centisecond
}

// Set stores d truncated to the hundredth of a second.
func (e ElapsedTimer) Set(d time.Duration) {
	e.mem.Write(e.secIdx, byte(d/time.Second))
	e.mem.Write(e.centiIdx, byte(d%time.Second/centisecond))
}

// Flag is a boolean slot.
type Flag struct {
	mem Slots
	idx int
}

// NewFlag returns the flag at idx.
func NewFlag(mem Slots, idx int) Flag {
	return Flag{mem: mem, idx: idx}
}

// Get reports whether the flag is set.
func (f Flag) Get() bool {
	return f.mem.Read(f.idx) != 0
}

// Set writes the flag.
func (f Flag) Set(v bool) {
	var b byte
	if v {
		b = 1
	}
	f.mem.Write(f.idx, b)
}

// WakeCauseSlot holds the cause recorded before a deep-sleep restart.
type WakeCauseSlot struct {
	mem Slots
	idx int
}

// NewWakeCauseSlot returns the wake-cause slot at idx.
func NewWakeCauseSlot(mem Slots, idx int) WakeCauseSlot {
	return WakeCauseSlot{mem: mem, idx: idx}
}

// Record stores the cause for the next run.
func (w WakeCauseSlot) Record(c WakeCause) {
	w.mem.Write(w.idx, byte(c))
}

// Peek returns the recorded cause without clearing it.
func (w WakeCauseSlot) Peek() WakeCause {
	if WakeCause(w.mem.Read(w.idx)) == WakePin {
		return WakePin
	}
	return WakeNone
}

// Take returns the recorded cause and clears it, so a later crash reads as
// an unplanned reset rather than a wake.
func (w WakeCauseSlot) Take() WakeCause {
	c := WakeCause(w.mem.Read(w.idx))
	w.mem.Write(w.idx, byte(WakeNone))
	if c != WakePin {
		return WakeNone
	}
	return c
}

// Actuator bundles the persisted state of one actuator.
type Actuator struct {
	Spec     ActuatorSpec
	Position *PositionSlot
	Elapsed  ElapsedTimer
}

// Persisted is every retained value the controller uses.
type Persisted struct {
	Lock      Actuator
	Door      Actuator
	Intent    *IntentSlot
	Retained  Flag
	WakeCause WakeCauseSlot
}

// LoadPersisted reads the retained state from mem.
func LoadPersisted(mem Slots, lock, door ActuatorSpec) *Persisted {
	return &Persisted{
		Lock: Actuator{
			Spec:     lock,
			Position: LoadPosition(mem, SlotLockPosition),
			Elapsed:  NewElapsedTimer(mem, SlotLockElapsedSeconds, SlotLockElapsedCenti),
		},
		Door: Actuator{
			Spec:     door,
			Position: LoadPosition(mem, SlotDoorPosition),
			Elapsed:  NewElapsedTimer(mem, SlotDoorElapsedSeconds, SlotDoorElapsedCenti),
		},
		Intent:    LoadIntent(mem, SlotIntent),
		Retained:  NewFlag(mem, SlotRetained),
		WakeCause: NewWakeCauseSlot(mem, SlotWakeCause),
	}
}
