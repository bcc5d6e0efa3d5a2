package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/coop-door/internal/calibration"
	"github.com/sweeney/coop-door/internal/config"
	"github.com/sweeney/coop-door/internal/gpio"
	"github.com/sweeney/coop-door/internal/logic"
	"github.com/sweeney/coop-door/internal/motor"
	"github.com/sweeney/coop-door/internal/power"
	"github.com/sweeney/coop-door/internal/rtc"
	"github.com/sweeney/coop-door/internal/store"
)

func TestCalibrationSource(t *testing.T) {
	a := &app{in: strings.NewReader(""), out: &bytes.Buffer{}}

	src, err := a.calibrationSource("", "", "")
	require.NoError(t, err)
	assert.IsType(t, calibration.Prompt{}, src)

	src, err = a.calibrationSource("03/14/2026", "06:30:00", "closed")
	require.NoError(t, err)
	c, err := src.Calibrate()
	require.NoError(t, err)
	assert.Equal(t, logic.Moment{Year: 2026, Month: 3, Day: 14, Hour: 6, Minute: 30, Weekday: 5}, c.At)
	assert.Equal(t, logic.Closed, c.Position)

	_, err = a.calibrationSource("03/14/2026", "", "open")
	assert.Error(t, err)

	_, err = a.calibrationSource("2026-03-14", "06:30:00", "open")
	assert.Error(t, err)

	_, err = a.calibrationSource("03/14/2026", "06:30:00", "ajar")
	assert.ErrorIs(t, err, calibration.ErrInvalid)
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()

	for _, sc := range []config.StoreConfig{
		{Backend: config.BackendFile, Path: filepath.Join(dir, "slots")},
		{Backend: config.BackendSQLite, Path: filepath.Join(dir, "slots.db")},
		{Backend: config.BackendMemory},
	} {
		t.Run(sc.Backend, func(t *testing.T) {
			mem, closeStore, err := openStore(sc)
			require.NoError(t, err)
			mem.Write(logic.SlotIntent, byte(logic.IntentOpen))
			require.NoError(t, mem.Sync())
			require.NoError(t, closeStore())
		})
	}

	_, _, err := openStore(config.StoreConfig{Backend: "floppy"})
	assert.Error(t, err)
}

func TestHardwareCloseOrder(t *testing.T) {
	var order []int
	hw := &hardware{}
	for i := 0; i < 3; i++ {
		i := i
		hw.onClose(func() error {
			order = append(order, i)
			if i == 1 {
				return fmt.Errorf("closer %d", i)
			}
			return nil
		})
	}

	err := hw.close()
	assert.EqualError(t, err, "closer 1")
	assert.Equal(t, []int{2, 1, 0}, order)
	assert.NoError(t, hw.close())
}

// bench is a coop with fake peripherals on a manual clock.
type bench struct {
	t       *testing.T
	dir     string
	clock   time.Time
	rtc     *rtc.FakeClock
	lock    *motor.FakeChannel
	door    *motor.FakeChannel
	driver  *gpio.FakeOutput
	led     *gpio.FakeOutput
	sleeper *power.FakeSleeper
	exits   []func()
	out     bytes.Buffer
	logs    bytes.Buffer
}

func newBench(t *testing.T) *bench {
	b := &bench{
		t:      t,
		dir:    t.TempDir(),
		clock:  time.Date(2026, 3, 14, 6, 30, 0, 0, time.UTC),
		rtc:    rtc.NewFakeClock(logic.Moment{Year: rtc.UnsetYear, Month: 1, Day: 1}),
		lock:   &motor.FakeChannel{},
		door:   &motor.FakeChannel{},
		driver: &gpio.FakeOutput{},
		led:    &gpio.FakeOutput{},
	}
	b.sleeper = &power.FakeSleeper{Advance: b.advance, DeepFor: time.Hour}

	var weeks []string
	for w := 1; w <= 53; w++ {
		weeks = append(weeks, fmt.Sprintf(`"%d": {"open": {"h": 7, "m": 0}, "close": {"h": 18, "m": 30}}`, w))
	}
	b.write("schedule.json", "{"+strings.Join(weeks, ",")+"}")
	b.write("config.yml", fmt.Sprintf(`
log_level: debug
schedule: %s
store:
  backend: file
  path: %s
`, filepath.Join(b.dir, "schedule.json"), filepath.Join(b.dir, "slots")))
	return b
}

func (b *bench) write(name, body string) {
	b.t.Helper()
	require.NoError(b.t, os.WriteFile(filepath.Join(b.dir, name), []byte(body), 0o600))
}

func (b *bench) advance(d time.Duration) { b.clock = b.clock.Add(d) }

func (b *bench) app(stdin string) *app {
	return &app{
		openHardware: func(*config.Config) (*hardware, error) {
			return &hardware{
				clock:       b.rtc,
				door:        b.door,
				lock:        b.lock,
				driverPower: b.driver,
				indicator:   b.led,
				sw:          gpio.NewFakeReader(true),
				sleeper:     b.sleeper,
				now:         func() time.Time { return b.clock },
				sleep:       b.advance,
			}, nil
		},
		openClock: func(*config.Config) (rtc.Clock, func() error, error) {
			return b.rtc, func() error { return nil }, nil
		},
		onExit: func(f func()) { b.exits = append(b.exits, f) },
		in:     strings.NewReader(stdin),
		out:    &b.out,
		logOut: &b.logs,
	}
}

// execute runs the command line and then the exit handlers, as main does.
func (b *bench) execute(stdin string, args ...string) error {
	b.t.Helper()
	root := b.app(stdin).rootCmd()
	root.SetArgs(append(args, "--config", filepath.Join(b.dir, "config.yml"), "--env-file", ""))
	err := root.Execute()
	for _, f := range b.exits {
		f()
	}
	b.exits = nil
	return err
}

func (b *bench) persisted() *logic.Persisted {
	b.t.Helper()
	s, err := store.OpenFile(filepath.Join(b.dir, "slots"), logic.SlotCount)
	require.NoError(b.t, err)
	b.t.Cleanup(func() { s.Close() })
	return logic.LoadPersisted(s, logic.DefaultLock, logic.DefaultDoor)
}

func TestInitThenOpenAcrossRestarts(t *testing.T) {
	b := newBench(t)

	require.NoError(t, b.execute("", "init", "--date", "03/14/2026", "--time", "06:30:00", "--position", "closed"))

	st := b.persisted()
	assert.Equal(t, logic.Closed, st.Lock.Position.Get())
	assert.Equal(t, logic.Closed, st.Door.Position.Get())
	assert.True(t, st.Retained.Get())
	assert.Equal(t, logic.WakePin, st.WakeCause.Peek())
	assert.Equal(t, logic.Moment{Year: 2026, Month: 3, Day: 14, Hour: 7, Weekday: 5}, b.rtc.Alarms[rtc.AlarmOpen])
	assert.Equal(t, 1, b.sleeper.Deep)

	// Alarm 1 fires at 07:00 and the next run opens lock then door.
	b.rtc.Current = logic.Moment{Year: 2026, Month: 3, Day: 14, Hour: 7, Weekday: 5}
	b.rtc.FiredFlags[rtc.AlarmOpen] = true

	require.NoError(t, b.execute("", "run"))

	st = b.persisted()
	assert.Equal(t, logic.Open, st.Lock.Position.Get())
	assert.Equal(t, logic.Open, st.Door.Position.Get())
	assert.Equal(t, logic.IntentNone, st.Intent.Get())
	assert.Equal(t, 2, b.sleeper.Deep)
	assert.Equal(t, []time.Duration{logic.DefaultLock.Threshold, logic.DefaultDoor.Threshold}, b.sleeper.Light)
	assert.False(t, b.driver.On)
	assert.Contains(t, b.logs.String(), "run")
}

func TestInitPromptsWithoutFlags(t *testing.T) {
	b := newBench(t)

	require.NoError(t, b.execute("03/14/2026\n\n19:15:00\n1\n", "init"))

	assert.Contains(t, b.out.String(), "MM/DD/YYYY")
	assert.Equal(t, logic.Moment{Year: 2026, Month: 3, Day: 14, Hour: 19, Minute: 15, Weekday: 5}, b.rtc.Current)
	st := b.persisted()
	assert.Equal(t, logic.Open, st.Door.Position.Get())
}

func TestInitRejectsPartialFlags(t *testing.T) {
	b := newBench(t)

	err := b.execute("", "init", "--date", "03/14/2026")
	require.Error(t, err)
	assert.Equal(t, 0, b.sleeper.Deep)
}

func TestPrintState(t *testing.T) {
	b := newBench(t)
	require.NoError(t, b.execute("", "init", "--date", "03/14/2026", "--time", "06:30:00", "--position", "open"))
	b.out.Reset()

	require.NoError(t, b.execute("", "print-state"))

	var got struct {
		Status struct {
			Lock struct {
				Position string `json:"position"`
			} `json:"lock"`
			Retained  bool   `json:"retained"`
			WakeCause string `json:"wake_cause"`
			RTC       struct {
				Set bool `json:"set"`
			} `json:"rtc"`
			Config struct {
				StoreBackend string `json:"store_backend"`
			} `json:"config"`
		} `json:"status"`
	}
	require.NoError(t, json.Unmarshal(b.out.Bytes(), &got))
	assert.Equal(t, "open", got.Status.Lock.Position)
	assert.True(t, got.Status.Retained)
	assert.Equal(t, "pin", got.Status.WakeCause)
	assert.True(t, got.Status.RTC.Set)
	assert.Equal(t, config.BackendFile, got.Status.Config.StoreBackend)
}

func TestLoadEnvToleratesMissingFile(t *testing.T) {
	a := &app{envFile: filepath.Join(t.TempDir(), "absent.env")}
	assert.NoError(t, a.loadEnv())

	path := filepath.Join(t.TempDir(), "coop-door.env")
	require.NoError(t, os.WriteFile(path, []byte("COOPDOOR_TEST_MARKER=present\n"), 0o600))
	t.Setenv("COOPDOOR_TEST_MARKER", "")
	os.Unsetenv("COOPDOOR_TEST_MARKER")

	a.envFile = path
	require.NoError(t, a.loadEnv())
	assert.Equal(t, "present", os.Getenv("COOPDOOR_TEST_MARKER"))
}
