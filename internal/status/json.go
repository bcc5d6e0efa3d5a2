package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/coop-door/internal/rtc"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Lock      ActuatorJSON `json:"lock"`
	Door      ActuatorJSON `json:"door"`
	Intent    string       `json:"intent"`
	Retained  bool         `json:"retained"`
	WakeCause string       `json:"wake_cause"`
	RTC       RTCJSON      `json:"rtc"`
	Timestamp string       `json:"timestamp"`
	Config    ConfigJSON   `json:"config"`
}

// ActuatorJSON is the JSON representation of one actuator.
type ActuatorJSON struct {
	Position  string `json:"position"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// RTCJSON reports the clock and alarm flags.
type RTCJSON struct {
	Time       string `json:"time,omitempty"`
	Set        bool   `json:"set"`
	OpenFired  bool   `json:"alarm1_fired"`
	CloseFired bool   `json:"alarm2_fired"`
	Error      string `json:"error,omitempty"`
}

// ConfigJSON is the JSON representation of controller config.
type ConfigJSON struct {
	StoreBackend    string `json:"store_backend"`
	StorePath       string `json:"store_path"`
	SchedulePath    string `json:"schedule_path"`
	LockThresholdMs int64  `json:"lock_threshold_ms"`
	DoorThresholdMs int64  `json:"door_threshold_ms"`
}

func actuatorJSON(a Actuator) ActuatorJSON {
	return ActuatorJSON{Position: a.Position.String(), ElapsedMs: a.Elapsed.Milliseconds()}
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Lock:      actuatorJSON(snap.Lock),
		Door:      actuatorJSON(snap.Door),
		Intent:    snap.Intent.String(),
		Retained:  snap.Retained,
		WakeCause: snap.WakeCause.String(),
		RTC: RTCJSON{
			Set:   snap.ClockSet(),
			Error: snap.RTCError,
		},
		Timestamp: snap.Now.UTC().Format(time.RFC3339),
		Config: ConfigJSON{
			StoreBackend:    snap.Config.StoreBackend,
			StorePath:       snap.Config.StorePath,
			SchedulePath:    snap.Config.SchedulePath,
			LockThresholdMs: snap.Config.LockThreshold.Milliseconds(),
			DoorThresholdMs: snap.Config.DoorThreshold.Milliseconds(),
		},
	}

	if snap.RTC != nil {
		inner.RTC.Time = snap.RTC.String()
	}
	for n, fired := range snap.Fired {
		switch n {
		case rtc.AlarmOpen:
			inner.RTC.OpenFired = fired
		case rtc.AlarmClose:
			inner.RTC.CloseFired = fired
		}
	}

	return inner
}

// FormatJSON returns the indented JSON status.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
