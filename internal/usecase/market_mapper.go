package usecase

import (
	"sort"
	"strconv"
	"strings"

	"github.com/riskibarqy/cartola-ingest/internal/domain/marketdata"
	"github.com/riskibarqy/cartola-ingest/internal/platform/coerce"
)

// marketOpenCode is the status_mercado value the feed uses for an open market.
const marketOpenCode = 1

// Snapshot is everything one run derives from the feeds. Round and Market are only
// populated when a round id could be resolved.
type Snapshot struct {
	Clubs     []marketdata.Club
	Positions []marketdata.Position
	Athletes  []marketdata.Athlete
	RoundID   *int
	Round     *marketdata.Round
	Market    []marketdata.MarketEntry
	Scores    []marketdata.ScoreEntry
}

// BuildSnapshot maps the market and status payloads. Scores are added separately since
// they come from an optional feed.
func BuildSnapshot(market, status marketdata.Payload, roundOverride *int) Snapshot {
	snapshot := Snapshot{
		Clubs:     BuildClubs(market),
		Positions: BuildPositions(market),
		Athletes:  BuildAthletes(market),
		RoundID:   ResolveRoundID(market, status, roundOverride),
	}
	if snapshot.RoundID != nil {
		round := BuildRoundRow(market, status, *snapshot.RoundID)
		snapshot.Round = &round
		snapshot.Market = BuildMarketRows(market, *snapshot.RoundID)
	}
	return snapshot
}

func BuildClubs(market marketdata.Payload) []marketdata.Club {
	items := objectEntries(market["clubes"])
	out := make([]marketdata.Club, 0, len(items))
	for _, item := range items {
		clubID := coerce.OptionalInt(coerce.Or(item.value["id"], item.key))
		name := firstNonEmpty(coerce.String(item.value["nome"]), coerce.String(item.value["nome_fantasia"]))
		abbreviation := strings.TrimSpace(coerce.String(item.value["abreviacao"]))
		if clubID == nil || name == "" || abbreviation == "" {
			continue
		}
		out = append(out, marketdata.Club{ID: *clubID, Name: name, Abbreviation: abbreviation})
	}
	return out
}

func BuildPositions(market marketdata.Payload) []marketdata.Position {
	items := objectEntries(market["posicoes"])
	out := make([]marketdata.Position, 0, len(items))
	for _, item := range items {
		positionID := coerce.OptionalInt(coerce.Or(item.value["id"], item.key))
		name := strings.TrimSpace(coerce.String(item.value["nome"]))
		if positionID == nil || name == "" {
			continue
		}
		out = append(out, marketdata.Position{ID: *positionID, Name: name})
	}
	return out
}

// BuildAthletes keeps the feed order. An athlete without a name falls back to its
// nickname and is dropped when both are blank.
func BuildAthletes(market marketdata.Payload) []marketdata.Athlete {
	items := objectList(market["atletas"])
	out := make([]marketdata.Athlete, 0, len(items))
	for _, item := range items {
		athleteID := coerce.OptionalInt(item["atleta_id"])
		if athleteID == nil {
			continue
		}
		name := firstNonEmpty(coerce.String(item["nome"]), coerce.String(item["apelido"]))
		if name == "" {
			continue
		}
		out = append(out, marketdata.Athlete{
			ID:         *athleteID,
			Name:       name,
			Nickname:   coerce.OptionalString(item["apelido"]),
			Slug:       coerce.OptionalString(item["slug"]),
			ClubID:     coerce.OptionalInt(item["clube_id"]),
			PositionID: coerce.OptionalInt(item["posicao_id"]),
			StatusID:   coerce.OptionalInt(item["status_id"]),
			Price:      coerce.OptionalFloat(item["preco_num"]),
		})
	}
	return out
}

// ResolveRoundID prefers the override, then the market feed, then the status feed.
// A nil result means no round-scoped rows can be produced.
func ResolveRoundID(market, status marketdata.Payload, override *int) *int {
	if override != nil {
		v := *override
		return &v
	}
	return coerce.OptionalInt(coerce.Or(
		lookup(market, "rodada_atual"),
		lookup(status, "rodada_atual"),
		lookup(status, "rodada"),
	))
}

// IsMarketOpen treats a missing or non-numeric status code as open.
func IsMarketOpen(status marketdata.Payload) bool {
	code := coerce.OptionalInt(lookup(status, "status_mercado"))
	if code == nil {
		return true
	}
	return *code == marketOpenCode
}

func BuildRoundRow(market, status marketdata.Payload, roundID int) marketdata.Round {
	startsAt := coerce.Or(
		lookup(status, "inicio_rodada"),
		lookup(market, "inicio_rodada"),
		lookup(market, "inicio"),
	)
	endsAt := coerce.Or(
		lookup(status, "fim_rodada"),
		lookup(status, "fim_mercado"),
		lookup(market, "fim_rodada"),
		lookup(market, "fechamento"),
	)
	return marketdata.Round{
		ID:       roundID,
		StartsAt: coerce.OptionalISODateTime(startsAt),
		EndsAt:   coerce.OptionalISODateTime(endsAt),
		IsOpen:   IsMarketOpen(status),
	}
}

// BuildMarketRows emits one entry per athlete with a usable id and price.
func BuildMarketRows(market marketdata.Payload, roundID int) []marketdata.MarketEntry {
	items := objectList(market["atletas"])
	out := make([]marketdata.MarketEntry, 0, len(items))
	for _, item := range items {
		athleteID := coerce.OptionalInt(item["atleta_id"])
		price := coerce.OptionalFloat(item["preco_num"])
		if athleteID == nil || price == nil {
			continue
		}
		out = append(out, marketdata.MarketEntry{
			RoundID:        roundID,
			AthleteID:      *athleteID,
			Price:          *price,
			PriceVariation: coerce.OptionalFloat(item["variacao_num"]),
			StatusID:       coerce.OptionalInt(item["status_id"]),
		})
	}
	return out
}

// BuildScoreRows reads the athlete mapping of the scores feed; anything else yields no rows.
func BuildScoreRows(scores marketdata.Payload, roundID int) []marketdata.ScoreEntry {
	items := objectEntries(lookup(scores, "atletas"))
	out := make([]marketdata.ScoreEntry, 0, len(items))
	for _, item := range items {
		athleteID := coerce.OptionalInt(coerce.Or(item.value["atleta_id"], item.key))
		points := coerce.OptionalFloat(item.value["pontuacao"])
		if athleteID == nil || points == nil {
			continue
		}
		out = append(out, marketdata.ScoreEntry{RoundID: roundID, AthleteID: *athleteID, Points: *points})
	}
	return out
}

type objectEntry struct {
	key   string
	value map[string]any
}

// objectEntries lists the object-valued members of a JSON mapping ordered by key,
// numeric keys first in numeric order, so repeated runs produce identical output.
func objectEntries(raw any) []objectEntry {
	mapping, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	out := make([]objectEntry, 0, len(mapping))
	for key, value := range mapping {
		obj, ok := value.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, objectEntry{key: key, value: obj})
	}
	sort.SliceStable(out, func(i, j int) bool {
		left, leftErr := strconv.ParseInt(out[i].key, 10, 64)
		right, rightErr := strconv.ParseInt(out[j].key, 10, 64)
		switch {
		case leftErr == nil && rightErr == nil && left != right:
			return left < right
		case leftErr == nil && rightErr != nil:
			return true
		case leftErr != nil && rightErr == nil:
			return false
		default:
			return out[i].key < out[j].key
		}
	})
	return out
}

func objectList(raw any) []map[string]any {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func lookup(src marketdata.Payload, key string) any {
	if src == nil {
		return nil
	}
	return src[key]
}

func firstNonEmpty(values ...string) string {
	for _, item := range values {
		if strings.TrimSpace(item) != "" {
			return strings.TrimSpace(item)
		}
	}
	return ""
}
