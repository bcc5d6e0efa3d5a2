package motor

// Released marks a Release call in FakeChannel.Commands.
const Released = "release"

// FakeChannel records motor commands.
type FakeChannel struct {
	// Throttle is the last commanded throttle; Running is false after Release.
	Throttle float64
	Running  bool

	// Commands holds every command in order: a float64 throttle or Released.
	Commands []any

	// Err, if set, is returned by every method.
	Err error
}

// SetThrottle records the throttle.
func (f *FakeChannel) SetThrottle(throttle float64) error {
	if f.Err != nil {
		return f.Err
	}
	if err := checkThrottle(throttle); err != nil {
		return err
	}
	f.Throttle = throttle
	f.Running = true
	f.Commands = append(f.Commands, throttle)
	return nil
}

// Release records a release.
func (f *FakeChannel) Release() error {
	if f.Err != nil {
		return f.Err
	}
	f.Throttle = 0
	f.Running = false
	f.Commands = append(f.Commands, Released)
	return nil
}
