package style

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/GriffinCanCode/homescreen/internal/domain/settings"
	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"github.com/GriffinCanCode/homescreen/internal/shared/types"
)

var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|#[0-9a-fA-F]{8}|inherit)$`)

// settingKeys maps style keys to the live settings they mirror
var settingKeys = map[string]string{
	types.StyleFont:         settings.KeyClockFont,
	types.StyleWeight:       settings.KeyClockWeight,
	types.StyleColor:        settings.KeyClockColor,
	types.StyleColorEnabled: settings.KeyClockColorEnabled,
	types.StyleStackEnabled: settings.KeyClockStackEnabled,
	types.StyleShowSeconds:  settings.KeyShowSeconds,
	types.StyleShowWeather:  settings.KeyShowWeather,
}

// Keys lists every style key in a stable order
var Keys = []string{
	types.StyleFont,
	types.StyleWeight,
	types.StyleColor,
	types.StyleColorEnabled,
	types.StyleStackEnabled,
	types.StyleShowSeconds,
	types.StyleShowWeather,
}

// SettingKey returns the settings key mirrored by a style key
func SettingKey(key string) (string, bool) {
	k, ok := settingKeys[key]
	return k, ok
}

// StyleKey returns the style key mirroring a settings key
func StyleKey(settingKey string) (string, bool) {
	for k, v := range settingKeys {
		if v == settingKey {
			return k, true
		}
	}
	return "", false
}

// SettingsReader reads mirrored settings
type SettingsReader interface {
	Get(key string) (interface{}, error)
}

// FromSettings builds the live profile from the mirrored settings. Values
// that fail validation keep their defaults.
func FromSettings(r SettingsReader) types.StyleProfile {
	p := types.DefaultStyleProfile()
	for _, key := range Keys {
		v, err := r.Get(settingKeys[key])
		if err != nil {
			continue
		}
		_ = SetField(&p, key, v)
	}
	return p
}

// SetField validates value and writes it into p
func SetField(p *types.StyleProfile, key string, value interface{}) error {
	switch key {
	case types.StyleFont:
		s, err := str(key, value)
		if err != nil {
			return err
		}
		if s == "" {
			return invalid(key, value)
		}
		p.Font = s
	case types.StyleWeight:
		s, err := weight(value)
		if err != nil {
			return err
		}
		p.Weight = s
	case types.StyleColor:
		s, err := str(key, value)
		if err != nil {
			return err
		}
		if !colorPattern.MatchString(s) {
			return invalid(key, value)
		}
		p.Color = s
	case types.StyleColorEnabled:
		return setBool(&p.ColorEnabled, key, value)
	case types.StyleStackEnabled:
		return setBool(&p.StackEnabled, key, value)
	case types.StyleShowSeconds:
		return setBool(&p.ShowSeconds, key, value)
	case types.StyleShowWeather:
		return setBool(&p.ShowWeather, key, value)
	default:
		return failure.Newf(failure.KindInvalidInput, "style.set", "unknown style key %q", key)
	}
	return nil
}

// Field reads one field of p by key
func Field(p types.StyleProfile, key string) (interface{}, bool) {
	switch key {
	case types.StyleFont:
		return p.Font, true
	case types.StyleWeight:
		return p.Weight, true
	case types.StyleColor:
		return p.Color, true
	case types.StyleColorEnabled:
		return p.ColorEnabled, true
	case types.StyleStackEnabled:
		return p.StackEnabled, true
	case types.StyleShowSeconds:
		return p.ShowSeconds, true
	case types.StyleShowWeather:
		return p.ShowWeather, true
	}
	return nil, false
}

func str(key string, value interface{}) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", invalid(key, value)
	}
	return s, nil
}

// weight accepts "700" or 700, multiples of 100 in [100, 900]
func weight(value interface{}) (string, error) {
	var n int
	switch v := value.(type) {
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return "", invalid(types.StyleWeight, value)
		}
		n = parsed
	case float64:
		n = int(v)
		if float64(n) != v {
			return "", invalid(types.StyleWeight, value)
		}
	case int:
		n = v
	default:
		return "", invalid(types.StyleWeight, value)
	}
	if n < 100 || n > 900 || n%100 != 0 {
		return "", invalid(types.StyleWeight, value)
	}
	return strconv.Itoa(n), nil
}

func setBool(dst *bool, key string, value interface{}) error {
	switch v := value.(type) {
	case bool:
		*dst = v
	case string:
		// legacy settings stored booleans as "true"/"false"
		b, err := strconv.ParseBool(v)
		if err != nil {
			return invalid(key, value)
		}
		*dst = b
	default:
		return invalid(key, value)
	}
	return nil
}

func invalid(key string, value interface{}) error {
	return failure.New(failure.KindInvalidInput, "style.set", fmt.Errorf("invalid value %v for %s", value, key))
}
