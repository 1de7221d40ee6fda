package engine

// Controller numbers with engine-visible side effects.
const (
	CCBankSelect         = 0
	CCModulation         = 1
	CCBreath             = 2
	CCDataEntry          = 6
	CCVolume             = 7
	CCPan                = 10
	CCExpression         = 11
	CCDataEntryLSB       = 38
	CCSustain            = 64
	CCNRPNLSB            = 98
	CCNRPNMSB            = 99
	CCRPNLSB             = 100
	CCRPNMSB             = 101
	CCAllSoundOff        = 120
	CCResetAllController = 121
	CCAllNotesOff        = 123
)

// ChannelState is the controller view of one MIDI channel.
type ChannelState struct {
	Controllers [Controllers]int
	Bend        int
	BendRange   int
	Pressure    int
}

func (c *ChannelState) reset() {
	for i := range c.Controllers {
		c.Controllers[i] = 0
	}
	c.Controllers[CCVolume] = 100
	c.Controllers[CCPan] = 64
	c.Controllers[CCExpression] = 127
	c.Controllers[CCRPNLSB] = 127
	c.Controllers[CCRPNMSB] = 127
	c.Bend = PitchBendCenter
	c.BendRange = DefaultPitchBendRange
	c.Pressure = 0
}

// resetControllers mirrors CC 121: controllers and wheel return to rest, the
// volume, pan and bend range are kept.
func (c *ChannelState) resetControllers() {
	volume, pan, bendRange := c.Controllers[CCVolume], c.Controllers[CCPan], c.BendRange
	c.reset()
	c.Controllers[CCVolume] = volume
	c.Controllers[CCPan] = pan
	c.BendRange = bendRange
}

// IsDefault reports whether control holds its power-on value.
func (c *ChannelState) IsDefault(control int) bool {
	var fresh ChannelState
	fresh.reset()
	return c.Controllers[control] == fresh.Controllers[control]
}

// State holds every channel's controller view. Engines that cannot query the
// underlying synthesizer keep one of these as the source of truth for the
// getter half of the facade. It is not safe for concurrent use; the owning
// engine guards it.
type State struct {
	channels [Channels]ChannelState
}

// NewState returns a State with every channel at power-on values.
func NewState() *State {
	s := &State{}
	s.Reset()
	return s
}

func (s *State) Reset() {
	for i := range s.channels {
		s.channels[i].reset()
	}
}

// Channel returns the state for ch, or nil when ch is out of range.
func (s *State) Channel(ch int) *ChannelState {
	if ch < 0 || ch >= Channels {
		return nil
	}
	return &s.channels[ch]
}

// SetController records a controller write and reports whether it was
// accepted. CC 121 resets the channel's controllers.
func (s *State) SetController(ch, control, value int) bool {
	c := s.Channel(ch)
	if c == nil || control < 0 || control >= Controllers {
		return false
	}
	value = clampInt(value, 0, 127)
	if control == CCResetAllController {
		c.resetControllers()
		return true
	}
	c.Controllers[control] = value
	if control == CCDataEntry && c.Controllers[CCRPNMSB] == 0 && c.Controllers[CCRPNLSB] == 0 {
		c.BendRange = value
	}
	return true
}

func (s *State) Controller(ch, control int) int {
	c := s.Channel(ch)
	if c == nil || control < 0 || control >= Controllers {
		return 0
	}
	return c.Controllers[control]
}

func (s *State) SetPitchBend(ch, value int) bool {
	c := s.Channel(ch)
	if c == nil {
		return false
	}
	c.Bend = clampInt(value, 0, PitchBendMax)
	return true
}

func (s *State) PitchBend(ch int) int {
	c := s.Channel(ch)
	if c == nil {
		return 0
	}
	return c.Bend
}

func (s *State) SetPitchBendRange(ch, semitones int) bool {
	c := s.Channel(ch)
	if c == nil {
		return false
	}
	c.BendRange = clampInt(semitones, 0, 127)
	return true
}

func (s *State) PitchBendRange(ch int) int {
	c := s.Channel(ch)
	if c == nil {
		return 0
	}
	return c.BendRange
}

func (s *State) SetChannelPressure(ch, value int) bool {
	c := s.Channel(ch)
	if c == nil {
		return false
	}
	c.Pressure = clampInt(value, 0, 127)
	return true
}

func (s *State) ChannelPressure(ch int) int {
	c := s.Channel(ch)
	if c == nil {
		return 0
	}
	return c.Pressure
}

// ValidNote reports whether ch and note address a real key.
func ValidNote(ch, note int) bool {
	return ch >= 0 && ch < Channels && note >= 0 && note <= 127
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampGain(g float32) float32 {
	if g != g || g < 0 {
		return 0
	}
	if g > MaxGain {
		return MaxGain
	}
	return g
}
