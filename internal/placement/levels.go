package placement

// Scale maps the ability continuum onto a language's discrete
// proficiency levels. Cutoffs[i] is the upper ability bound of
// Levels[i]; the last level has no upper bound.
type Scale struct {
	Name    string
	Levels  []string
	Cutoffs []float64
}

// JLPTScale is the 5-level Japanese proficiency scale, beginner first.
var JLPTScale = Scale{
	Name:    "jlpt",
	Levels:  []string{"N5", "N4", "N3", "N2", "N1"},
	Cutoffs: []float64{-1.8, -0.6, 0.6, 1.8},
}

// CEFRScale is the 6-level scale used for every other language.
var CEFRScale = Scale{
	Name:    "cefr",
	Levels:  []string{"A1", "A2", "B1", "B2", "C1", "C2"},
	Cutoffs: []float64{-2, -1, 0, 1, 2},
}

// ScaleFor picks the proficiency scale for a content language.
func ScaleFor(language string) Scale {
	if language == "japanese" {
		return JLPTScale
	}
	return CEFRScale
}

// LevelFor buckets an ability estimate into a level name.
func (s Scale) LevelFor(ability float64) string {
	for i, cutoff := range s.Cutoffs {
		if ability < cutoff {
			return s.Levels[i]
		}
	}
	return s.Levels[len(s.Levels)-1]
}
