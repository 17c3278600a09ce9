package words

import "testing"

func TestRandomPairReturnsDistinctWords(t *testing.T) {
	src := NewBuiltinSource()

	for _, difficulty := range []string{DIFFICULTY_EASY, DIFFICULTY_NORMAL, DIFFICULTY_HARD} {
		for i := 0; i < 50; i++ {
			pair, err := src.RandomPair(difficulty)
			if err != nil {
				t.Fatalf("RandomPair(%s): %v", difficulty, err)
			}
			if pair.CivilianWord == "" || pair.SpyWord == "" {
				t.Fatalf("RandomPair(%s) returned an empty word: %+v", difficulty, pair)
			}
			if pair.CivilianWord == pair.SpyWord {
				t.Fatalf("RandomPair(%s) returned identical words %q", difficulty, pair.CivilianWord)
			}
		}
	}
}

func TestRandomPairUnknownDifficultyFallsBack(t *testing.T) {
	src := NewBuiltinSource()

	pair, err := src.RandomPair("impossible")
	if err != nil {
		t.Fatalf("RandomPair: %v", err)
	}
	if pair.CivilianWord == "" || pair.SpyWord == "" {
		t.Fatalf("fallback returned an empty pair: %+v", pair)
	}
}

func TestBuiltinPairsAreWellFormed(t *testing.T) {
	for difficulty, list := range pairsByDifficulty {
		if len(list) == 0 {
			t.Errorf("difficulty %q has no pairs", difficulty)
		}
		for _, pair := range list {
			if pair.CivilianWord == pair.SpyWord {
				t.Errorf("difficulty %q has a degenerate pair %q", difficulty, pair.CivilianWord)
			}
		}
	}
}
