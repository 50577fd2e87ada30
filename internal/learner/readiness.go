package learner

import (
	"encoding"
	"fmt"
)

// ReadinessLevel is the coarse exam-preparedness bucket.
type ReadinessLevel int

const (
	NotReady ReadinessLevel = iota + 1
	AlmostReady
	Ready
	Confident
)

var (
	readinessNames = [...]string{
		NotReady:    "not_ready",
		AlmostReady: "almost_ready",
		Ready:       "ready",
		Confident:   "confident",
	}
	readinessByName = map[string]ReadinessLevel{
		"not_ready":    NotReady,
		"almost_ready": AlmostReady,
		"ready":        Ready,
		"confident":    Confident,
	}
)

var (
	_ fmt.Stringer             = ReadinessLevel(0)
	_ encoding.TextMarshaler   = ReadinessLevel(0)
	_ encoding.TextUnmarshaler = (*ReadinessLevel)(nil)
)

// IsValid reports whether l is a declared readiness level.
func (l ReadinessLevel) IsValid() bool {
	return l >= NotReady && l <= Confident
}

// String returns the wire-format name ("not_ready", ...).
func (l ReadinessLevel) String() string {
	if l.IsValid() {
		return readinessNames[l]
	}
	return fmt.Sprintf("ReadinessLevel(%d)", int(l))
}

// MarshalText implements encoding.TextMarshaler.
func (l ReadinessLevel) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("learner: invalid readiness level %d", int(l))
	}
	return []byte(readinessNames[l]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *ReadinessLevel) UnmarshalText(text []byte) error {
	v, ok := readinessByName[string(text)]
	if !ok {
		return fmt.Errorf("learner: invalid readiness level %q", text)
	}
	*l = v
	return nil
}

// Readiness pairs the bucket with a 0-1 confidence margin.
type Readiness struct {
	Level      ReadinessLevel `json:"level"`
	Confidence float64        `json:"confidence"`
}

// Readiness thresholds: both the core-skill average and the vocabulary
// coverage percent must clear the bar for a tier.
var readinessTiers = []struct {
	skillAvg float64
	coverage float64
	level    ReadinessLevel
}{
	{90, 90, Confident},
	{80, 80, Ready},
	{60, 60, AlmostReady},
}

// ClassifyReadiness buckets a profile by the average of the four core
// skills and the vocabulary coverage percent. It is recomputed after
// every skill mutation rather than stored incrementally.
func ClassifyReadiness(skills map[Skill]int, cov VocabCoverage) Readiness {
	avg := coreSkillAverage(skills)
	pct := cov.Percent()

	level := NotReady
	for _, tier := range readinessTiers {
		if avg >= tier.skillAvg && pct >= tier.coverage {
			level = tier.level
			break
		}
	}

	// Confidence is the weaker of the two inputs, scaled to 0-1.
	weaker := avg
	if pct < weaker {
		weaker = pct
	}
	return Readiness{Level: level, Confidence: clamp(weaker/100, 0, 1)}
}

func coreSkillAverage(skills map[Skill]int) float64 {
	core := CoreSkills()
	sum := 0
	for _, s := range core {
		if v, ok := skills[s]; ok {
			sum += v
		} else {
			sum += DefaultSkillScore
		}
	}
	return float64(sum) / float64(len(core))
}
