// Package records builds the all-time leaderboard tables.
package records

import (
	"fmt"
	"math"
	"sort"

	"github.com/brianbrunner/just2guys/dataset"
	"github.com/brianbrunner/just2guys/models"
	"github.com/brianbrunner/just2guys/rivalry"
)

const (
	topN = 50

	// games a manager/player pair needs before it counts for Real Dedication
	dedicationMinGames = 10
	// games a rivalry needs before it counts for Domination
	dominationMinGames = 3

	niceLow  = 69.0
	niceHigh = 70.0
)

// Cell kinds tell renderers what entity a cell refers to.
const (
	KindText    = ""
	KindMatchup = "matchup"
	KindManager = "manager"
	KindTeam    = "team"
	KindPlayer  = "player"
)

type Cell struct {
	Text string `json:"text"`
	Kind string `json:"kind,omitempty"`
	Key  string `json:"key,omitempty"`
}

type Row struct {
	Rank  int     `json:"rank"`
	Cells []Cell  `json:"cells"`
	Score float64 `json:"score"`
}

type Table struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Columns     []string `json:"columns"`
	Rows        []Row    `json:"rows"`
}

// Build returns every record table in display order.
func Build(ds *dataset.Dataset, rivalries rivalry.Records) []Table {
	finished := finishedMatchups(ds)
	return []Table{
		BadBeats(ds, finished),
		Demolished(ds, finished),
		PostseasonAppearances(ds),
		MostWins(ds),
		BestManagerRecord(ds),
		FavoritePlayers(ds),
		RealDedication(ds),
		Nice(ds),
		PutMeInCoach(ds),
		TakeTheHighRoad(ds, finished),
		TakeTheLowRoad(ds, finished),
		Domination(ds, rivalries),
		BestRegularSeason(ds),
	}
}

func finishedMatchups(ds *dataset.Dataset) []*models.Matchup {
	var out []*models.Matchup
	for _, m := range ds.Matchups() {
		if m.IsFinalized() {
			out = append(out, m)
		}
	}
	return out
}

func BadBeats(ds *dataset.Dataset, matchups []*models.Matchup) Table {
	return Table{
		Name:        "Bad Beats",
		Slug:        "bad-beats",
		Description: "The Top 50 Matchups With The Smallest Margin of Victory",
		Columns:     []string{"Matchup", "Margin of Victory"},
		Rows:        matchupRows(ds, matchups, (*models.Matchup).Margin, true),
	}
}

func Demolished(ds *dataset.Dataset, matchups []*models.Matchup) Table {
	return Table{
		Name:        "Demolished",
		Slug:        "demolished",
		Description: "The Top 50 Matchups With The Highest Margin of Victory",
		Columns:     []string{"Matchup", "Margin of Victory"},
		Rows:        matchupRows(ds, matchups, (*models.Matchup).Margin, false),
	}
}

func TakeTheHighRoad(ds *dataset.Dataset, matchups []*models.Matchup) Table {
	return Table{
		Name:        "Take The High Road",
		Slug:        "take-the-high-road",
		Description: "Top 50 Highest Scoring Games",
		Columns:     []string{"Matchup", "Total Points"},
		Rows:        matchupRows(ds, matchups, (*models.Matchup).TotalPoints, false),
	}
}

func TakeTheLowRoad(ds *dataset.Dataset, matchups []*models.Matchup) Table {
	return Table{
		Name:        "Take The Low Road",
		Slug:        "take-the-low-road",
		Description: "Top 50 Lowest Scoring Games",
		Columns:     []string{"Matchup", "Total Points"},
		Rows:        matchupRows(ds, matchups, (*models.Matchup).TotalPoints, true),
	}
}

func matchupRows(ds *dataset.Dataset, matchups []*models.Matchup, score func(*models.Matchup) float64, ascending bool) []Row {
	rows := make([]Row, 0, len(matchups))
	for _, m := range matchups {
		s := round(score(m), 2)
		rows = append(rows, Row{
			Cells: []Cell{matchupCell(ds, m), numberCell(s, 2)},
			Score: s,
		})
	}
	return rank(rows, ascending, topN)
}

func PostseasonAppearances(ds *dataset.Dataset) Table {
	var rows []Row
	for _, mgr := range ds.Managers() {
		n := 0
		for _, t := range ds.TeamsOf(mgr.Key) {
			if ds.MadePlayoffs(t.Key) {
				n++
			}
		}
		rows = append(rows, Row{Cells: []Cell{managerCell(mgr), intCell(n)}, Score: float64(n)})
	}
	return Table{
		Name:        "Postseason Appearances",
		Slug:        "postseason-appearances",
		Description: "Manager That Has Made The Post Season The Most Times",
		Columns:     []string{"Manager", "# Appearances"},
		Rows:        rank(rows, false, 0),
	}
}

// managerResults counts every decided game of every team a manager ran.
func managerResults(ds *dataset.Dataset, managerKey string) (wins, losses int) {
	for _, t := range ds.TeamsOf(managerKey) {
		for _, m := range ds.MatchupsFor(t.Key, 0) {
			winner, ok := m.Winner()
			if !ok {
				continue
			}
			if winner == t.Key {
				wins++
			} else {
				losses++
			}
		}
	}
	return wins, losses
}

func MostWins(ds *dataset.Dataset) Table {
	var rows []Row
	for _, mgr := range ds.Managers() {
		w, _ := managerResults(ds, mgr.Key)
		rows = append(rows, Row{Cells: []Cell{managerCell(mgr), intCell(w)}, Score: float64(w)})
	}
	return Table{
		Name:        "Most Wins",
		Slug:        "most-wins",
		Description: "Manager With The Most Total Wins",
		Columns:     []string{"Manager", "# Wins"},
		Rows:        rank(rows, false, 0),
	}
}

func BestManagerRecord(ds *dataset.Dataset) Table {
	var rows []Row
	for _, mgr := range ds.Managers() {
		w, l := managerResults(ds, mgr.Key)
		pct := 0.0
		if w+l > 0 {
			pct = round(float64(w)/float64(w+l), 3)
		}
		rows = append(rows, Row{Cells: []Cell{managerCell(mgr), numberCell(pct, 3)}, Score: pct})
	}
	return Table{
		Name:        "Best Manager Record",
		Slug:        "best-manager-record",
		Description: "Manager With The Best Record",
		Columns:     []string{"Manager", "Record"},
		Rows:        rank(rows, false, 0),
	}
}

type comboStats struct {
	manager *models.Manager
	player  *models.Player
	games   int
	points  float64
}

// activeCombos tallies started games and points per manager/player pair.
func activeCombos(ds *dataset.Dataset) []*comboStats {
	byKey := make(map[string]*comboStats)
	var out []*comboStats
	for _, s := range ds.Slots() {
		if !s.IsStarter() {
			continue
		}
		player, ok := ds.Player(s.PlayerKey)
		if !ok {
			continue
		}
		for _, mgr := range ds.ManagersOf(s.TeamKey) {
			k := mgr.Key + "|" + player.Key
			c, ok := byKey[k]
			if !ok {
				c = &comboStats{manager: mgr, player: player}
				byKey[k] = c
				out = append(out, c)
			}
			c.games++
			c.points += s.Points
		}
	}
	return out
}

func FavoritePlayers(ds *dataset.Dataset) Table {
	var rows []Row
	for _, c := range activeCombos(ds) {
		rows = append(rows, Row{
			Cells: []Cell{managerCell(c.manager), playerCell(c.player), intCell(c.games)},
			Score: float64(c.games),
		})
	}
	return Table{
		Name:        "Favorite Players",
		Slug:        "favorite-players",
		Description: "The Top 50 Manager/Player Combos That Have Played The Most Games",
		Columns:     []string{"Manager", "Player", "Games Played"},
		Rows:        rank(rows, false, topN),
	}
}

func RealDedication(ds *dataset.Dataset) Table {
	var rows []Row
	for _, c := range activeCombos(ds) {
		if c.games < dedicationMinGames {
			continue
		}
		avg := round(c.points/float64(c.games), 2)
		rows = append(rows, Row{
			Cells: []Cell{managerCell(c.manager), playerCell(c.player), intCell(c.games), numberCell(avg, 2)},
			Score: avg,
		})
	}
	return Table{
		Name:        "Real Dedication",
		Slug:        "real-dedication",
		Description: "Top 50 Lowest Points Scored Per Game For Manager/Player Combo (10 or More Games)",
		Columns:     []string{"Manager", "Player", "Games Played", "Avg. Points"},
		Rows:        rank(rows, true, topN),
	}
}

// IsNice reports whether a score lands in [69, 70).
func IsNice(points float64) bool {
	return points >= niceLow && points < niceHigh
}

func Nice(ds *dataset.Dataset) Table {
	counts := make(map[string]int)
	for _, m := range ds.Matchups() {
		if m.TeamBKey == nil {
			continue
		}
		for _, side := range []struct {
			team   string
			points float64
		}{{m.TeamAKey, m.TeamAPoints}, {*m.TeamBKey, m.TeamBPoints}} {
			if !IsNice(side.points) {
				continue
			}
			for _, mgr := range ds.ManagersOf(side.team) {
				counts[mgr.Key]++
			}
		}
	}
	var rows []Row
	for _, mgr := range ds.Managers() {
		if n := counts[mgr.Key]; n > 0 {
			rows = append(rows, Row{Cells: []Cell{managerCell(mgr), intCell(n)}, Score: float64(n)})
		}
	}
	return Table{
		Name:        "Nice",
		Slug:        "nice",
		Description: "Managers With The Most Scores Of 69 Points",
		Columns:     []string{"Manager", "Nice"},
		Rows:        rank(rows, false, 0),
	}
}

func PutMeInCoach(ds *dataset.Dataset) Table {
	var rows []Row
	for _, s := range ds.Slots() {
		if s.Position != models.PositionBench {
			continue
		}
		player, ok := ds.Player(s.PlayerKey)
		if !ok || player.IsQuarterback() {
			continue
		}
		team, ok := ds.Team(s.TeamKey)
		if !ok {
			continue
		}
		for _, mgr := range ds.ManagersOf(team.Key) {
			rows = append(rows, Row{
				Cells: []Cell{managerCell(mgr), teamCell(team), intCell(s.Week), playerCell(player), numberCell(s.Points, 2)},
				Score: s.Points,
			})
		}
	}
	return Table{
		Name:        "Put Me In, Coach",
		Slug:        "put-me-in-coach",
		Description: "Top 50 Most Points Scored By A Non-QB Player On The Bench",
		Columns:     []string{"Manager", "Team", "Week", "Player", "Points"},
		Rows:        rank(rows, false, topN),
	}
}

func Domination(ds *dataset.Dataset, rivalries rivalry.Records) Table {
	var rows []Row
	for _, r := range rivalries.All() {
		if r.Games() < dominationMinGames {
			continue
		}
		owner, okO := ds.Manager(r.ManagerKey)
		opp, okP := ds.Manager(r.OpponentKey)
		if !okO || !okP {
			continue
		}
		pct := round(r.WinRate(), 2)
		rows = append(rows, Row{
			Cells: []Cell{managerCell(owner), managerCell(opp), intCell(r.Wins), intCell(r.Losses), numberCell(pct, 2)},
			Score: pct,
		})
	}
	return Table{
		Name:        "Domination",
		Slug:        "domination",
		Description: "Top 50 Highest Manager vs Manager Records With 3 Or More Games Played",
		Columns:     []string{"Top Manager", "Bottom Manager", "Wins", "Losses", "Record"},
		Rows:        rank(rows, false, topN),
	}
}

func BestRegularSeason(ds *dataset.Dataset) Table {
	var rows []Row
	for _, t := range ds.Teams() {
		w, _ := ds.RegularSeasonRecord(t.Key)
		mgrCell := Cell{Text: "-"}
		if ms := ds.ManagersOf(t.Key); len(ms) > 0 {
			mgrCell = managerCell(ms[0])
		}
		rows = append(rows, Row{Cells: []Cell{teamCell(t), mgrCell, intCell(w)}, Score: float64(w)})
	}
	return Table{
		Name:        "Best Regular Season",
		Slug:        "best-regular-season",
		Description: "Team With The Most Wins In The Regular Season",
		Columns:     []string{"Team", "Manager", "Wins"},
		Rows:        rank(rows, false, 0),
	}
}

// rank sorts rows by score and assigns competition ranks: equal scores
// share a rank and the next distinct score skips ahead. A limit of zero
// keeps every row.
func rank(rows []Row, ascending bool, limit int) []Row {
	sort.SliceStable(rows, func(i, j int) bool {
		if ascending {
			return rows[i].Score < rows[j].Score
		}
		return rows[i].Score > rows[j].Score
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for i := range rows {
		if i > 0 && rows[i].Score == rows[i-1].Score {
			rows[i].Rank = rows[i-1].Rank
		} else {
			rows[i].Rank = i + 1
		}
	}
	return rows
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func matchupCell(ds *dataset.Dataset, m *models.Matchup) Cell {
	name := func(key string) string {
		if t, ok := ds.Team(key); ok {
			return t.Name
		}
		return key
	}
	text := fmt.Sprintf("%s %.2f - %.2f %s (%d, Week %d)",
		name(m.TeamAKey), m.TeamAPoints, m.TeamBPoints, name(*m.TeamBKey), ds.Season(m), m.Week)
	return Cell{Text: text, Kind: KindMatchup, Key: m.ID}
}

func managerCell(m *models.Manager) Cell {
	return Cell{Text: m.Nickname, Kind: KindManager, Key: m.Key}
}

func teamCell(t *models.Team) Cell {
	return Cell{Text: t.Name, Kind: KindTeam, Key: t.Key}
}

func playerCell(p *models.Player) Cell {
	return Cell{Text: p.Name, Kind: KindPlayer, Key: p.Key}
}

func intCell(n int) Cell {
	return Cell{Text: fmt.Sprint(n)}
}

func numberCell(v float64, places int) Cell {
	return Cell{Text: fmt.Sprintf("%.*f", places, v)}
}
