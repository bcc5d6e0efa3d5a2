package rtc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"

	"github.com/sweeney/coop-door/internal/logic"
)

// regFile emulates the DS3231 register pointer protocol: the first written
// byte selects a register, further bytes are written from there and reads
// continue from the pointer.
type regFile struct {
	regs [0x13]byte
	err  error
}

func (f *regFile) String() string { return "regfile" }
func (f *regFile) Duplex() conn.Duplex { return conn.Half }
func (f *regFile) Tx(w, r []byte) error {
	if f.err != nil {
		return f.err
	}
	ptr := 0
	if len(w) > 0 {
		ptr = int(w[0])
		for _, b := range w[1:] {
			f.regs[ptr] = b
			ptr++
		}
	}
	for i := range r {
		r[i] = f.regs[ptr]
		ptr++
	}
	return nil
}

func TestDS3231SetAndNow(t *testing.T) {
	f := &regFile{}
	f.regs[regStatus] = statusOSF
	d := NewDS3231(f)

	m := logic.Moment{Year: 2024, Month: 12, Day: 31, Hour: 23, Minute: 59, Second: 58, Weekday: 1}
	require.NoError(t, d.Set(m))

	assert.Equal(t, []byte{0x58, 0x59, 0x23, 0x02, 0x31, 0x12, 0x24}, f.regs[:7])
	assert.Zero(t, f.regs[regStatus]&statusOSF, "oscillator-stop flag should be cleared")

	got, err := d.Now()
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestDS3231UnsetClockReadsYear2000(t *testing.T) {
	f := &regFile{}
	f.regs[3] = 1
	f.regs[4] = 1
	f.regs[5] = 1

	got, err := NewDS3231(f).Now()
	require.NoError(t, err)
	assert.Equal(t, UnsetYear, got.Year)
	assert.Equal(t, 0, got.Weekday)
}

func TestDS3231TwelveHourMode(t *testing.T) {
	f := &regFile{}
	f.regs[2] = hour12Bit | hourPMBit | 0x11 // 11 PM
	f.regs[4] = 1
	f.regs[5] = 1

	got, err := NewDS3231(f).Now()
	require.NoError(t, err)
	assert.Equal(t, 23, got.Hour)

	f.regs[2] = hour12Bit | 0x12 // 12 AM
	got, err = NewDS3231(f).Now()
	require.NoError(t, err)
	assert.Equal(t, 0, got.Hour)
}

func TestDS3231DailyAlarms(t *testing.T) {
	f := &regFile{}
	d := NewDS3231(f)

	require.NoError(t, d.SetAlarm(AlarmOpen, logic.Moment{Hour: 6, Minute: 45}))
	require.NoError(t, d.SetAlarm(AlarmClose, logic.Moment{Hour: 20, Minute: 5}))

	assert.Equal(t, []byte{0x00, 0x45, 0x06, maskBit}, f.regs[regAlarm1:regAlarm1+4])
	assert.Equal(t, []byte{0x05, 0x20, maskBit}, f.regs[regAlarm2:regAlarm2+3])

	assert.Error(t, d.SetAlarm(Alarm(3), logic.Moment{}))
}

func TestDS3231InterruptsAndFlags(t *testing.T) {
	f := &regFile{}
	d := NewDS3231(f)

	require.NoError(t, d.EnableInterrupt(AlarmOpen, true))
	require.NoError(t, d.EnableInterrupt(AlarmClose, true))
	assert.Equal(t, byte(ctrlA1IE|ctrlA2IE|ctrlINTCN), f.regs[regControl])

	require.NoError(t, d.EnableInterrupt(AlarmOpen, false))
	assert.Equal(t, byte(ctrlA2IE|ctrlINTCN), f.regs[regControl])

	f.regs[regStatus] = statusA1F | statusA2F
	fired, err := d.Fired(AlarmClose)
	require.NoError(t, err)
	assert.True(t, fired)

	require.NoError(t, d.ClearFired(AlarmClose))
	assert.Equal(t, byte(statusA1F), f.regs[regStatus])

	fired, err = d.Fired(AlarmClose)
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestDS3231BusError(t *testing.T) {
	f := &regFile{err: errors.New("nack")}
	d := NewDS3231(f)

	_, err := d.Now()
	assert.ErrorContains(t, err, "nack")
	assert.Error(t, d.ClearFired(AlarmOpen))
}

func TestFakeClockRecordsCalls(t *testing.T) {
	f := NewFakeClock(logic.Moment{Year: 2025})

	require.NoError(t, f.SetAlarm(AlarmOpen, logic.Moment{Hour: 7}))
	require.NoError(t, f.EnableInterrupt(AlarmClose, true))
	f.FiredFlags[AlarmOpen] = true
	require.NoError(t, f.ClearFired(AlarmOpen))

	assert.Equal(t, 7, f.Alarms[AlarmOpen].Hour)
	assert.True(t, f.Enabled[AlarmClose])
	assert.False(t, f.FiredFlags[AlarmOpen])
	assert.Equal(t, []Alarm{AlarmOpen}, f.Cleared)
}
