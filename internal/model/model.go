package model

import "time"

const (
	RoleStudent      = "student"
	RoleProfessional = "professional"
	RoleResearcher   = "researcher"

	ChronotypeEarly  = "early"
	ChronotypeNormal = "normal"
	ChronotypeLate   = "late"
)

const (
	LevelStudent    = "Student"
	LevelScholar    = "Scholar"
	LevelGenius     = "Genius"
	LevelMastermind = "Mastermind"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the per-user scheduling profile. It is read as an immutable
// snapshot at the start of every scheduling call.
type Profile struct {
	Name             string   `json:"name"`
	Role             string   `json:"role"`
	Chronotype       string   `json:"chronotype"`
	WakeTime         string   `json:"wake_time"`
	SleepTime        string   `json:"sleep_time"`
	SleepHours       float64  `json:"sleep_hours"`
	StressLevel      int      `json:"stress_level"`
	DailyCommitments []string `json:"daily_commitments"`
	BreakPreferences []string `json:"break_preferences"`
	LecturesToday    int      `json:"lectures_today"`
	MeetingsToday    int      `json:"meetings_today"`
}

// DefaultProfile mirrors the defaults handed to a user who has never
// saved a profile.
func DefaultProfile() Profile {
	return Profile{
		Role:             RoleStudent,
		Chronotype:       ChronotypeNormal,
		WakeTime:         "07:00",
		SleepTime:        "23:00",
		SleepHours:       7.0,
		StressLevel:      2,
		DailyCommitments: []string{},
		BreakPreferences: []string{},
	}
}

// Task is a unit of requested work, either user-supplied or produced by
// the task parser. CognitiveLoad of 0 means "derive it".
type Task struct {
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	Category        string  `json:"category"`
	Difficulty      float64 `json:"difficulty"`
	DurationMinutes int     `json:"duration_minutes"`
	CognitiveLoad   float64 `json:"cognitive_load"`
}

// Block is one placed entry in the final plan. Commitments and breaks
// carry IsBreak=true and zero load.
type Block struct {
	TaskTitle      string  `json:"task_title"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	CognitiveLoad  float64 `json:"cognitive_load"`
	EnergyAtStart  float64 `json:"energy_at_start"`
	FatigueAtStart float64 `json:"fatigue_at_start"`
	IsBreak        bool    `json:"is_break"`
	Explanation    string  `json:"explanation"`
}

type CurvePoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

type Gamification struct {
	XP     int      `json:"xp"`
	Level  string   `json:"level"`
	Streak int      `json:"streak"`
	Badges []string `json:"badges"`
}

// TLXEntry is one NASA-TLX feedback record (mental demand and effort on
// a 1-7 scale) for a completed block.
type TLXEntry struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"userId"`
	BlockIndex   int       `json:"block_index"`
	MentalDemand int       `json:"mental_demand"`
	Effort       int       `json:"effort"`
	CreatedAt    time.Time `json:"timestamp"`
}

// FatigueWeights are the three per-user coefficients tuned by TLX
// recalibration.
type FatigueWeights struct {
	FatigueConsecWeight float64 `json:"fatigue_consec_weight"`
	FatigueTotalWeight  float64 `json:"fatigue_total_weight"`
	FatigueForceBreak   float64 `json:"fatigue_force_break"`
}

// Schedule is a persisted plan row. Data holds the full JSON response
// that was returned to the user.
type Schedule struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Data           []byte    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	CalendarSynced bool      `json:"calendarSynced"`
}

func ValidRole(r string) bool {
	return r == RoleStudent || r == RoleProfessional || r == RoleResearcher
}

func ValidChronotype(c string) bool {
	return c == ChronotypeEarly || c == ChronotypeNormal || c == ChronotypeLate
}
