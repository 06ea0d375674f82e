package usecase

import (
	"bytes"
	"reflect"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/cartola-ingest/internal/domain/marketdata"
)

func decodePayload(t *testing.T, raw string) marketdata.Payload {
	t.Helper()
	var out map[string]any
	if err := sonic.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return out
}

const scenarioMarket = `{
	"clubes": {"1": {"id": 1, "nome": "Flamengo", "abreviacao": "FLA"}},
	"posicoes": {"1": {"id": 1, "nome": "Goleiro"}},
	"atletas": [{"atleta_id": 100, "apelido": "Diego", "clube_id": 1, "posicao_id": 1, "status_id": 7, "preco_num": "12.3", "variacao_num": "0.5"}]
}`

const scenarioStatus = `{"status_mercado": 1, "rodada_atual": 5}`

func TestBuildSnapshot_Scenario(t *testing.T) {
	t.Parallel()

	snapshot := BuildSnapshot(decodePayload(t, scenarioMarket), decodePayload(t, scenarioStatus), nil)

	wantClubs := []marketdata.Club{{ID: 1, Name: "Flamengo", Abbreviation: "FLA"}}
	if !reflect.DeepEqual(snapshot.Clubs, wantClubs) {
		t.Fatalf("unexpected clubs: %+v", snapshot.Clubs)
	}
	wantPositions := []marketdata.Position{{ID: 1, Name: "Goleiro"}}
	if !reflect.DeepEqual(snapshot.Positions, wantPositions) {
		t.Fatalf("unexpected positions: %+v", snapshot.Positions)
	}

	if len(snapshot.Athletes) != 1 {
		t.Fatalf("unexpected athlete count: %d", len(snapshot.Athletes))
	}
	athlete := snapshot.Athletes[0]
	if athlete.ID != 100 || athlete.Name != "Diego" {
		t.Fatalf("unexpected athlete identity: %+v", athlete)
	}
	if athlete.Nickname == nil || *athlete.Nickname != "Diego" || athlete.Slug != nil {
		t.Fatalf("unexpected athlete nickname/slug: %v %v", athlete.Nickname, athlete.Slug)
	}
	if athlete.ClubID == nil || *athlete.ClubID != 1 || athlete.PositionID == nil || *athlete.PositionID != 1 {
		t.Fatalf("unexpected athlete references: %+v", athlete)
	}
	if athlete.StatusID == nil || *athlete.StatusID != 7 || athlete.Price == nil || *athlete.Price != 12.3 {
		t.Fatalf("unexpected athlete status/price: %+v", athlete)
	}

	if snapshot.RoundID == nil || *snapshot.RoundID != 5 {
		t.Fatalf("unexpected round id: %v", snapshot.RoundID)
	}
	if snapshot.Round == nil || snapshot.Round.ID != 5 || !snapshot.Round.IsOpen {
		t.Fatalf("unexpected round row: %+v", snapshot.Round)
	}

	if len(snapshot.Market) != 1 {
		t.Fatalf("unexpected market count: %d", len(snapshot.Market))
	}
	entry := snapshot.Market[0]
	if entry.RoundID != 5 || entry.AthleteID != 100 || entry.Price != 12.3 {
		t.Fatalf("unexpected market entry: %+v", entry)
	}
	if entry.PriceVariation == nil || *entry.PriceVariation != 0.5 || entry.StatusID == nil || *entry.StatusID != 7 {
		t.Fatalf("unexpected market entry extras: %+v", entry)
	}
}

func TestBuildSnapshot_NoRoundProducesNoRoundScopedRows(t *testing.T) {
	t.Parallel()

	market := decodePayload(t, scenarioMarket)
	snapshot := BuildSnapshot(market, marketdata.Payload{"status_mercado": float64(1)}, nil)
	if snapshot.RoundID != nil || snapshot.Round != nil || len(snapshot.Market) != 0 {
		t.Fatalf("expected degraded snapshot without round, got %+v", snapshot)
	}
	if len(snapshot.Athletes) != 1 {
		t.Fatalf("athletes must still be built without a round, got %d", len(snapshot.Athletes))
	}
}

func TestBuildClubs_DropsIncompleteEntries(t *testing.T) {
	t.Parallel()

	market := decodePayload(t, `{"clubes": {
		"1": {"id": 1, "nome": "Flamengo", "abreviacao": "FLA"},
		"2": {"nome": "Palmeiras", "abreviacao": "PAL"},
		"3": {"id": 3, "abreviacao": "SAO"},
		"4": {"id": 4, "nome": "Santos"},
		"abc": {"nome": "Sem Id", "abreviacao": "SID"},
		"5": {"id": "x", "nome": "Invalido", "abreviacao": "INV"},
		"6": {"id": 6, "nome_fantasia": " Fortaleza ", "abreviacao": " FOR "},
		"7": "not an object"
	}}`)

	got := BuildClubs(market)
	want := []marketdata.Club{
		{ID: 1, Name: "Flamengo", Abbreviation: "FLA"},
		{ID: 2, Name: "Palmeiras", Abbreviation: "PAL"},
		{ID: 6, Name: "Fortaleza", Abbreviation: "FOR"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected clubs:\nwant: %+v\ngot:  %+v", want, got)
	}
}

func TestBuildClubs_MissingMappingYieldsEmpty(t *testing.T) {
	t.Parallel()

	for _, market := range []marketdata.Payload{nil, {}, {"clubes": []any{}}, {"clubes": "x"}} {
		if got := BuildClubs(market); len(got) != 0 {
			t.Fatalf("expected no clubs for %+v, got %+v", market, got)
		}
	}
}

func TestBuildPositions_FallsBackToKeyAndDropsUnnamed(t *testing.T) {
	t.Parallel()

	market := decodePayload(t, `{"posicoes": {
		"2": {"nome": "Lateral"},
		"1": {"id": 1, "nome": "Goleiro"},
		"3": {"id": 3, "nome": "   "}
	}}`)

	got := BuildPositions(market)
	want := []marketdata.Position{{ID: 1, Name: "Goleiro"}, {ID: 2, Name: "Lateral"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected positions:\nwant: %+v\ngot:  %+v", want, got)
	}
}

func TestBuildAthletes_NameResolution(t *testing.T) {
	t.Parallel()

	market := decodePayload(t, `{"atletas": [
		{"atleta_id": 1, "nome": " Gabriel Barbosa ", "apelido": "Gabigol"},
		{"atleta_id": 2, "apelido": "  Diego  "},
		{"atleta_id": 3},
		{"atleta_id": 4, "nome": "", "apelido": ""},
		{"apelido": "Sem Id"},
		{"atleta_id": "abc", "apelido": "Id Invalido"},
		"not an object"
	]}`)

	got := BuildAthletes(market)
	if len(got) != 2 {
		t.Fatalf("unexpected athlete count: %d (%+v)", len(got), got)
	}
	if got[0].ID != 1 || got[0].Name != "Gabriel Barbosa" {
		t.Fatalf("unexpected first athlete: %+v", got[0])
	}
	if got[1].ID != 2 || got[1].Name != "Diego" {
		t.Fatalf("nickname fallback must be trimmed, got %+v", got[1])
	}
}

func TestBuildAthletes_DefensiveNumericCoercion(t *testing.T) {
	t.Parallel()

	market := decodePayload(t, `{"atletas": [
		{"atleta_id": "10", "apelido": "X", "clube_id": "abc", "posicao_id": null, "status_id": "7", "preco_num": "caro"}
	]}`)

	got := BuildAthletes(market)
	if len(got) != 1 {
		t.Fatalf("unexpected athlete count: %d", len(got))
	}
	athlete := got[0]
	if athlete.ID != 10 {
		t.Fatalf("unexpected id: %d", athlete.ID)
	}
	if athlete.ClubID != nil || athlete.PositionID != nil || athlete.Price != nil {
		t.Fatalf("non numeric optionals must be nil: %+v", athlete)
	}
	if athlete.StatusID == nil || *athlete.StatusID != 7 {
		t.Fatalf("unexpected status id: %v", athlete.StatusID)
	}
}

func TestResolveRoundID_Precedence(t *testing.T) {
	t.Parallel()

	override := 99
	market := marketdata.Payload{"rodada_atual": float64(5)}
	status := marketdata.Payload{"rodada_atual": float64(6), "rodada": float64(7)}

	if got := ResolveRoundID(market, status, &override); got == nil || *got != 99 {
		t.Fatalf("override must win, got %v", got)
	}
	if got := ResolveRoundID(market, status, nil); got == nil || *got != 5 {
		t.Fatalf("market round must win over status, got %v", got)
	}
	if got := ResolveRoundID(marketdata.Payload{}, status, nil); got == nil || *got != 6 {
		t.Fatalf("status round_atual must be used next, got %v", got)
	}
	if got := ResolveRoundID(nil, marketdata.Payload{"rodada": "8"}, nil); got == nil || *got != 8 {
		t.Fatalf("status rodada must be the last fallback, got %v", got)
	}
	if got := ResolveRoundID(marketdata.Payload{}, marketdata.Payload{}, nil); got != nil {
		t.Fatalf("expected nil round, got %d", *got)
	}
}

func TestIsMarketOpen(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status marketdata.Payload
		want   bool
	}{
		{name: "open code", status: marketdata.Payload{"status_mercado": float64(1)}, want: true},
		{name: "open code as string", status: marketdata.Payload{"status_mercado": "1"}, want: true},
		{name: "closed code", status: marketdata.Payload{"status_mercado": float64(2)}, want: false},
		{name: "maintenance code", status: marketdata.Payload{"status_mercado": float64(4)}, want: false},
		{name: "missing code", status: marketdata.Payload{}, want: true},
		{name: "non numeric code", status: marketdata.Payload{"status_mercado": "fechado"}, want: true},
		{name: "nil payload", status: nil, want: true},
	}
	for _, tc := range cases {
		if got := IsMarketOpen(tc.status); got != tc.want {
			t.Fatalf("%s: got=%t want=%t", tc.name, got, tc.want)
		}
	}
}

func TestBuildRoundRow_TimestampPrecedence(t *testing.T) {
	t.Parallel()

	market := marketdata.Payload{
		"inicio_rodada": "2026-05-01 10:00:00",
		"fim_rodada":    "2026-05-03 10:00:00",
		"fechamento":    map[string]any{"timestamp": float64(1778428800)},
	}
	status := marketdata.Payload{
		"status_mercado": float64(2),
		"fim_mercado":    "2026-05-02T18:30:00-03:00",
	}

	row := BuildRoundRow(market, status, 12)
	if row.ID != 12 || row.IsOpen {
		t.Fatalf("unexpected round identity/open flag: %+v", row)
	}
	if row.StartsAt == nil || *row.StartsAt != "2026-05-01T10:00:00+00:00" {
		t.Fatalf("unexpected starts_at: %v", row.StartsAt)
	}
	if row.EndsAt == nil || *row.EndsAt != "2026-05-02T18:30:00-03:00" {
		t.Fatalf("status end time must take precedence, got %v", row.EndsAt)
	}

	row = BuildRoundRow(marketdata.Payload{"fechamento": map[string]any{"timestamp": float64(1778428800)}}, marketdata.Payload{}, 12)
	if row.StartsAt != nil {
		t.Fatalf("expected nil starts_at, got %q", *row.StartsAt)
	}
	if row.EndsAt == nil || *row.EndsAt != "2026-05-10T16:00:00+00:00" {
		t.Fatalf("unexpected fechamento fallback: %v", row.EndsAt)
	}
	if !row.IsOpen {
		t.Fatalf("missing status code must resolve to open")
	}
}

func TestBuildMarketRows_PriceRules(t *testing.T) {
	t.Parallel()

	market := decodePayload(t, `{"atletas": [
		{"atleta_id": 1, "preco_num": 7.555, "variacao_num": "x", "status_id": 7},
		{"atleta_id": 2, "preco_num": "abc"},
		{"atleta_id": 3},
		{"preco_num": 5},
		{"atleta_id": 4, "preco_num": 0},
		{"atleta_id": 5, "preco_num": "1e400"}
	]}`)

	got := BuildMarketRows(market, 3)
	if len(got) != 2 {
		t.Fatalf("unexpected market count: %d (%+v)", len(got), got)
	}
	if got[0].AthleteID != 1 || got[0].Price != 7.56 || got[0].PriceVariation != nil {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	if got[1].AthleteID != 4 || got[1].Price != 0 || got[1].RoundID != 3 {
		t.Fatalf("zero price is a valid price: %+v", got[1])
	}
}

func TestBuildScoreRows(t *testing.T) {
	t.Parallel()

	scores := decodePayload(t, `{"atletas": {
		"100": {"pontuacao": 4.456},
		"200": {"atleta_id": 201, "pontuacao": "3"},
		"300": {"pontuacao": "n/a"},
		"abc": {"pontuacao": 1},
		"400": "x"
	}}`)

	got := BuildScoreRows(scores, 5)
	want := []marketdata.ScoreEntry{
		{RoundID: 5, AthleteID: 100, Points: 4.46},
		{RoundID: 5, AthleteID: 201, Points: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected scores:\nwant: %+v\ngot:  %+v", want, got)
	}

	for _, payload := range []marketdata.Payload{nil, {}, {"atletas": []any{}}} {
		if rows := BuildScoreRows(payload, 5); len(rows) != 0 {
			t.Fatalf("expected no rows for %+v, got %+v", payload, rows)
		}
	}
}

func TestBuildSnapshot_IsDeterministic(t *testing.T) {
	t.Parallel()

	raw := `{
		"clubes": {"10": {"nome": "A", "abreviacao": "AAA"}, "2": {"nome": "B", "abreviacao": "BBB"}, "33": {"nome": "C", "abreviacao": "CCC"}},
		"posicoes": {"5": {"nome": "Atacante"}, "1": {"nome": "Goleiro"}, "3": {"nome": "Zagueiro"}},
		"atletas": [{"atleta_id": 2, "apelido": "B", "preco_num": 1}, {"atleta_id": 1, "apelido": "A", "preco_num": 2}],
		"rodada_atual": 4
	}`
	status := `{"status_mercado": 2, "fim_mercado": "2026-05-02 12:00:00"}`

	first, err := sonic.Marshal(BuildSnapshot(decodePayload(t, raw), decodePayload(t, status), nil))
	if err != nil {
		t.Fatalf("marshal first snapshot: %v", err)
	}
	for i := 0; i < 20; i++ {
		next, err := sonic.Marshal(BuildSnapshot(decodePayload(t, raw), decodePayload(t, status), nil))
		if err != nil {
			t.Fatalf("marshal snapshot: %v", err)
		}
		if !bytes.Equal(first, next) {
			t.Fatalf("snapshot differs between runs:\n%s\n%s", first, next)
		}
	}

	clubs := BuildClubs(decodePayload(t, raw))
	if len(clubs) != 3 || clubs[0].ID != 2 || clubs[1].ID != 10 || clubs[2].ID != 33 {
		t.Fatalf("clubs must be ordered by numeric key: %+v", clubs)
	}
}
