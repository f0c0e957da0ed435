package interview

import "strings"

// #region limits
const (
	DefaultDurationMinutes = 15
	MaxDurationMinutes     = 120

	DefaultQuestionCount = 4
	MaxQuestionCount     = 20
)
// #endregion limits

// #region normalize
// Normalize returns a copy of s with duration, question count and experience constrained to
// supported values. Zero values take the defaults.
func (s Settings) Normalize() Settings {
	out := s
	out.Position = strings.TrimSpace(s.Position)

	switch {
	case s.Duration <= 0:
		out.Duration = DefaultDurationMinutes
	case s.Duration > MaxDurationMinutes:
		out.Duration = MaxDurationMinutes
	}

	switch {
	case s.QuestionCount <= 0:
		out.QuestionCount = DefaultQuestionCount
	case s.QuestionCount > MaxQuestionCount:
		out.QuestionCount = MaxQuestionCount
	}

	switch lvl := strings.ToLower(strings.TrimSpace(s.Experience)); lvl {
	case ExperienceJunior, ExperienceMid, ExperienceSenior:
		out.Experience = lvl
	default:
		out.Experience = ExperienceMid
	}

	skills := make([]string, 0, len(s.Skills))
	for _, sk := range s.Skills {
		if sk = strings.TrimSpace(sk); sk != "" {
			skills = append(skills, sk)
		}
	}
	out.Skills = skills
	return out
}

// DurationSeconds is the countdown length for the session.
func (s Settings) DurationSeconds() int {
	return int(s.Duration) * 60
}
// #endregion normalize
