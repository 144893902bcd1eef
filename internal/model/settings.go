package model

import (
	"errors"
	"strings"

	"github.com/sandeepkv93/nudge/internal/workinghours"
)

const DefaultDelay = "30m"

// Settings is the process-wide configuration the scheduler consults.
type Settings struct {
	Window       workinghours.Window
	DefaultDelay string
}

func DefaultSettings() Settings {
	return Settings{
		Window: workinghours.Window{
			Mode:  workinghours.ModeAllDay,
			Start: workinghours.Clock{Hour: 8},
			End:   workinghours.Clock{Hour: 17},
		},
		DefaultDelay: DefaultDelay,
	}
}

func (s Settings) WorkingHoursEnabled() bool {
	return s.Window.Mode == workinghours.ModeRestricted
}

func (s Settings) TwentyFourHourMode() bool {
	return s.Window.Mode == workinghours.ModeAllDay
}

// SetWorkingHoursEnabled and SetTwentyFourHourMode are two views of the same
// switch: turning one on turns the other off.
func (s *Settings) SetWorkingHoursEnabled(on bool) {
	if on {
		s.Window.Mode = workinghours.ModeRestricted
		return
	}
	s.Window.Mode = workinghours.ModeAllDay
}

func (s *Settings) SetTwentyFourHourMode(on bool) {
	s.SetWorkingHoursEnabled(!on)
}

func (s Settings) Validate() error {
	if err := s.Window.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(s.DefaultDelay) == "" {
		return errors.New("model: default delay is required")
	}
	return nil
}
