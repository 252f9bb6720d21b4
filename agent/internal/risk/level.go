package risk

import (
	"fmt"
	"strings"
)

// Level is an ordinal risk score for a single dimension. Ordering matters:
// Unknown ranks above Medium so that missing data can never make a token look
// safer than partial data would.
type Level int

const (
	Low Level = iota
	Medium
	Unknown
	High
)

func (l Level) String() string {
	switch l {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MaxLevel returns the worst ordinal among the given levels.
func MaxLevel(levels ...Level) Level {
	max := Low
	for _, l := range levels {
		if l > max {
			max = l
		}
	}
	return max
}

// ParseLevel reads a configured level name.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "unknown":
		return Unknown, nil
	case "high":
		return High, nil
	default:
		return Unknown, fmt.Errorf("unknown risk level %q", s)
	}
}

// LevelFromLabel maps free-text labels returned by reputation and fake-volume
// sources onto the ordinal scale. The mapping is deliberately explicit: any
// label not in the table reads as Unknown, never as Low.
func LevelFromLabel(label string) Level {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "good", "safe", "ok", "low", "none":
		return Low
	case "warn", "warning", "caution", "medium", "suspicious":
		return Medium
	case "danger", "bad", "high", "critical", "rug", "scam", "honeypot":
		return High
	default:
		return Unknown
	}
}
