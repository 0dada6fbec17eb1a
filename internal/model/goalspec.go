package model

// Weekday is a single-day flag inside a GoalSpec payload.
type Weekday byte

const (
	Saturday  Weekday = 0x01
	Friday    Weekday = 0x02
	Thursday  Weekday = 0x04
	Wednesday Weekday = 0x08
	Tuesday   Weekday = 0x10
	Monday    Weekday = 0x20
	Sunday    Weekday = 0x40
)

// GoalMode selects how a GoalSpec payload is interpreted.
type GoalMode byte

const (
	ModeDayFrequency GoalMode = iota // payload is a 7-bit weekday bitmask
	ModeFrequency                    // payload is a target count per week
)

const (
	goalModeBit     = 0x80
	goalPayloadMask = 0x7F
)

// GoalSpec packs a habit's recurrence target into a single byte: the high bit
// selects the mode, the low 7 bits carry either a weekday bitmask or a
// times-per-week count. The same encoding doubles as a timeblock's weekly
// recurrence pattern, where an empty payload means "single event".
type GoalSpec struct {
	data byte
}

// DayFrequency builds a weekday-bitmask spec. Input is masked to 7 bits, so
// the mode bit can never leak in from the caller.
func DayFrequency(weekdayFlags byte) GoalSpec {
	return GoalSpec{data: weekdayFlags & goalPayloadMask}
}

// Frequency builds a times-per-week spec (0-127).
func Frequency(timesPerWeek byte) GoalSpec {
	return GoalSpec{data: goalModeBit | (timesPerWeek & goalPayloadMask)}
}

func (g GoalSpec) Mode() GoalMode {
	if g.data&goalModeBit != 0 {
		return ModeFrequency
	}
	return ModeDayFrequency
}

// TimesPerWeek returns the payload as a frequency target.
func (g GoalSpec) TimesPerWeek() int {
	return int(g.data & goalPayloadMask)
}

// WeekdayFlags returns the payload as a weekday bitmask.
func (g GoalSpec) WeekdayFlags() byte {
	return g.data & goalPayloadMask
}

// HasDay reports whether the named weekday flag is set.
func (g GoalSpec) HasDay(d Weekday) bool {
	return g.WeekdayFlags()&byte(d) != 0
}

// HasWeekday reports whether a calendar weekday (0 = Sunday .. 6 = Saturday,
// as in time.Weekday) is included.
func (g GoalSpec) HasWeekday(wday int) bool {
	return g.WeekdayFlags()&(1<<(6-wday)) != 0
}

// IsEmpty reports whether the payload has no bits set. An empty day-frequency
// spec on a timeblock marks it as a single event.
func (g GoalSpec) IsEmpty() bool {
	return g.data&goalPayloadMask == 0
}

// Byte returns the packed byte for persistence.
func (g GoalSpec) Byte() byte {
	return g.data
}

// GoalSpecFromByte rebuilds a spec from its persisted byte.
func GoalSpecFromByte(b byte) GoalSpec {
	return GoalSpec{data: b}
}
