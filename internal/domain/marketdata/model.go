package marketdata

// Payload is a decoded feed response: a JSON object with arbitrary nested values.
type Payload = map[string]any

// Backend table names.
const (
	TableClubs         = "clubs"
	TablePositions     = "positions"
	TableAthletes      = "athletes"
	TableRounds        = "rounds"
	TableMarket        = "market"
	TableAthleteScores = "athlete_scores"
)

// Conflict keys used by upserts.
var (
	ConflictByID           = []string{"id"}
	ConflictByRoundAthlete = []string{"round_id", "athlete_id"}
)

type Club struct {
	ID           int    `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Abbreviation string `json:"abbreviation" db:"abbreviation"`
}

type Position struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Athlete is one entry of the market athlete list. ClubID and PositionID are
// soft references to Club and Position.
type Athlete struct {
	ID         int      `json:"id" db:"id"`
	Name       string   `json:"name" db:"name"`
	Nickname   *string  `json:"nickname" db:"nickname"`
	Slug       *string  `json:"slug" db:"slug"`
	ClubID     *int     `json:"club_id" db:"club_id"`
	PositionID *int     `json:"position_id" db:"position_id"`
	StatusID   *int     `json:"status_id" db:"status_id"`
	Price      *float64 `json:"price" db:"price"`
}

// Round is the scoring period resolved for a run. StartsAt and EndsAt are RFC3339 in UTC
// when the feed gave no zone.
type Round struct {
	ID       int     `json:"id" db:"id"`
	StartsAt *string `json:"starts_at" db:"starts_at"`
	EndsAt   *string `json:"ends_at" db:"ends_at"`
	IsOpen   bool    `json:"is_open" db:"is_open"`
}

type MarketEntry struct {
	RoundID        int      `json:"round_id" db:"round_id"`
	AthleteID      int      `json:"athlete_id" db:"athlete_id"`
	Price          float64  `json:"price" db:"price"`
	PriceVariation *float64 `json:"price_variation" db:"price_variation"`
	StatusID       *int     `json:"status_id" db:"status_id"`
}

type ScoreEntry struct {
	RoundID   int     `json:"round_id" db:"round_id"`
	AthleteID int     `json:"athlete_id" db:"athlete_id"`
	Points    float64 `json:"points" db:"points"`
}

// Rows converts a typed row slice into the untyped form accepted by Gateway.Upsert.
func Rows[T any](items []T) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}
