package selector

import (
	"strings"
	"testing"
)

func TestCountWords(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		language string
		want     int
	}{
		{"japanese runes", "日本語です", "japanese", 5},
		{"japanese ignores whitespace", "今日は 晴れ\nです", "japanese", 7},
		{"chinese runes", "你好世界", "chinese", 4},
		{"spaced language", "hello brave new world", "spanish", 4},
		{"empty body", "", "japanese", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countWords(tt.body, tt.language); got != tt.want {
				t.Errorf("countWords(%q, %q) = %d, want %d", tt.body, tt.language, got, tt.want)
			}
		})
	}
}

func TestStructuralCheck(t *testing.T) {
	if err := structuralCheck(&Content{Title: "t", Body: "b"}); err != nil {
		t.Errorf("valid content rejected: %v", err)
	}
	if err := structuralCheck(&Content{Body: "b"}); err == nil {
		t.Error("empty title accepted")
	}
	if err := structuralCheck(&Content{Title: "t"}); err == nil {
		t.Error("empty body accepted")
	}
}

func TestComputeConstraints_GrammarMatch(t *testing.T) {
	s := New(nil, nil, Config{})
	content := Content{GrammarTags: []string{"te-form", "Past-Tense"}}

	con := s.computeConstraints(content, TargetSpec{RequiredGrammarTags: []string{"past-tense"}}, nil)
	if !con.GrammarMatch {
		t.Error("case-insensitive tag match failed")
	}

	con = s.computeConstraints(content, TargetSpec{RequiredGrammarTags: []string{"causative"}}, nil)
	if con.GrammarMatch {
		t.Error("missing required tag reported as matched")
	}

	con = s.computeConstraints(content, TargetSpec{}, nil)
	if !con.GrammarMatch {
		t.Error("no required tags should match vacuously")
	}
}

func TestComputeConstraints_Length(t *testing.T) {
	s := New(nil, nil, Config{})

	con := s.computeConstraints(Content{WordCount: 110}, TargetSpec{TargetWordCount: 100}, nil)
	if !con.LengthOK {
		t.Error("10% over target should be within the 20% tolerance")
	}

	con = s.computeConstraints(Content{WordCount: 130}, TargetSpec{TargetWordCount: 100}, nil)
	if con.LengthOK {
		t.Error("30% over target should exceed tolerance")
	}

	con = s.computeConstraints(Content{WordCount: 9999}, TargetSpec{}, nil)
	if !con.LengthOK {
		t.Error("no target length should pass vacuously")
	}
}

func TestComputeConstraints_EmptyVocabulary(t *testing.T) {
	s := New(nil, nil, Config{})

	con := s.computeConstraints(Content{}, TargetSpec{}, testKnownWords())
	if con.Coverage != 0 || con.NewWordCount != 0 {
		t.Errorf("empty vocabulary: coverage %v newWords %d, want zeros", con.Coverage, con.NewWordCount)
	}
}

func TestComputeConstraints_NilKnownWords(t *testing.T) {
	s := New(nil, nil, Config{})
	content := Content{Vocabulary: []VocabEntry{{Word: "犬"}, {Word: "猫"}}}

	con := s.computeConstraints(content, TargetSpec{}, nil)
	if con.Coverage != 0 {
		t.Errorf("coverage = %v, want 0 with no known words", con.Coverage)
	}
	if con.NewWordCount != 2 {
		t.Errorf("new words = %d, want 2", con.NewWordCount)
	}
}

func TestScoreGenerated_PerfectCoverage(t *testing.T) {
	s := New(nil, nil, Config{})

	sc := s.scoreGenerated(Constraints{Coverage: 0.85}, TargetSpec{TopicTags: []string{"food"}}, 0.9)
	if sc.DifficultyFit != 1 {
		t.Errorf("difficulty fit = %v, want 1 at the coverage target", sc.DifficultyFit)
	}
	if sc.InterestFit != 1 {
		t.Errorf("interest fit = %v, want 1 with requested topics", sc.InterestFit)
	}
	if sc.Novelty != 1 {
		t.Errorf("novelty = %v, want 1 for generated content", sc.Novelty)
	}
	// 0.45 + 0.25 + 0.2*0.9 + 0.1
	if !almostEqual(sc.Total, 0.98) {
		t.Errorf("total = %v, want 0.98", sc.Total)
	}
}

func TestScoreGenerated_NoTopicsNeutralInterest(t *testing.T) {
	s := New(nil, nil, Config{})

	sc := s.scoreGenerated(Constraints{Coverage: 0.85}, TargetSpec{}, 0.9)
	if sc.InterestFit != 0.5 {
		t.Errorf("interest fit = %v, want 0.5 without requested topics", sc.InterestFit)
	}
}

func TestGuidelinesFor(t *testing.T) {
	if g := GuidelinesFor("N4"); !strings.Contains(g, "1,500") {
		t.Errorf("N4 guidelines missing vocabulary bound: %q", g)
	}
	if g := GuidelinesFor("B1"); !strings.Contains(g, "abstract") {
		t.Errorf("B1 guidelines unexpected: %q", g)
	}
	if g := GuidelinesFor("N9"); g != levelGuidelines["N5"] {
		t.Error("unknown JLPT label should fall back to N5")
	}
	if g := GuidelinesFor("Z3"); g != levelGuidelines["A1"] {
		t.Error("unknown label should fall back to A1")
	}
}

func TestBuildContentPrompt(t *testing.T) {
	spec := testSpec()
	spec.MustUseWords = []string{"犬", "川"}
	spec.BeginnerMode = true

	prompt := buildContentPrompt(spec)

	for _, want := range []string{"japanese", "N4", "food", "past-tense", "犬", "Beginner mode", "about 30 words"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildGradingPrompt(t *testing.T) {
	content := Content{
		Title: "朝のコーヒー",
		Body:  "毎朝、コーヒーを飲みます。",
		Vocabulary: []VocabEntry{
			{Word: "毎朝", Reading: "まいあさ", Meaning: "every morning", Level: "N5"},
		},
	}

	prompt := buildGradingPrompt(testSpec(), content)

	for _, want := range []string{"N4", "朝のコーヒー", "毎朝", "まいあさ", "every morning"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
