package game

import "undercover-be/internal/service/words"

type Settings struct {
	MaxPlayers int    `json:"maxPlayers"`
	SpyCount   int    `json:"spyCount"`
	BlankCount int    `json:"blankCount"`
	Difficulty string `json:"difficulty"`
}

func DefaultSettings() Settings {
	return Settings{
		MaxPlayers: 6,
		SpyCount:   1,
		BlankCount: 0,
		Difficulty: words.DIFFICULTY_NORMAL,
	}
}

// apply clamps every client-sent value server-side; client bounds are never
// trusted. Absent fields keep their current value.
func (s *Settings) apply(req UpdateSettingsPayload) {
	if req.MaxPlayers != nil {
		s.MaxPlayers = clamp(*req.MaxPlayers, 4, 12)
	}

	if req.SpyCount != nil {
		s.SpyCount = max(1, *req.SpyCount)
	}

	if req.BlankCount != nil {
		s.BlankCount = max(0, *req.BlankCount)
	}

	if req.Difficulty != nil {
		switch *req.Difficulty {
		case words.DIFFICULTY_EASY, words.DIFFICULTY_NORMAL, words.DIFFICULTY_HARD:
			s.Difficulty = *req.Difficulty
		default:
			s.Difficulty = words.DIFFICULTY_NORMAL
		}
	}
}

// Minimum roster for a start: every spy and blank needs at least two
// civilians to hide among, and never fewer than four players overall.
func (s Settings) minPlayersToStart() int {
	return max(4, s.SpyCount+s.BlankCount+2)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
