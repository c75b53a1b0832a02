// Package dataset is a read-only, indexed view of everything in the store.
// Derived computations (standings, rivalries, record tables, rendering)
// work on a Dataset instead of querying the database themselves.
package dataset

import (
	"sort"

	"github.com/brianbrunner/just2guys/models"
)

type Input struct {
	Leagues      []*models.League
	Teams        []*models.Team
	Managers     []*models.Manager
	Players      []*models.Player
	Matchups     []*models.Matchup
	Slots        []*models.RosterSlot
	TeamManagers []models.TeamManager
	TeamPlayers  []models.TeamPlayer
}

type Dataset struct {
	in Input

	leagues  map[string]*models.League
	teams    map[string]*models.Team
	managers map[string]*models.Manager
	players  map[string]*models.Player

	teamManagers map[string][]*models.Manager
	managerTeams map[string][]*models.Team
	teamPlayers  map[string][]*models.Player
	leagueTeams  map[string][]*models.Team
	teamGames    map[string][]*models.Matchup
	leagueGames  map[string][]*models.Matchup
	matchupSlots map[string][]*models.RosterSlot
}

func New(in Input) *Dataset {
	in.Leagues = append([]*models.League(nil), in.Leagues...)
	in.Matchups = append([]*models.Matchup(nil), in.Matchups...)
	d := &Dataset{
		in:           in,
		leagues:      make(map[string]*models.League, len(in.Leagues)),
		teams:        make(map[string]*models.Team, len(in.Teams)),
		managers:     make(map[string]*models.Manager, len(in.Managers)),
		players:      make(map[string]*models.Player, len(in.Players)),
		teamManagers: make(map[string][]*models.Manager),
		managerTeams: make(map[string][]*models.Team),
		teamPlayers:  make(map[string][]*models.Player),
		leagueTeams:  make(map[string][]*models.Team),
		teamGames:    make(map[string][]*models.Matchup),
		leagueGames:  make(map[string][]*models.Matchup),
		matchupSlots: make(map[string][]*models.RosterSlot),
	}

	sort.SliceStable(d.in.Leagues, func(i, j int) bool {
		a, b := d.in.Leagues[i], d.in.Leagues[j]
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		return a.Key < b.Key
	})
	for _, l := range d.in.Leagues {
		d.leagues[l.Key] = l
	}
	for _, t := range in.Teams {
		d.teams[t.Key] = t
		d.leagueTeams[t.LeagueKey] = append(d.leagueTeams[t.LeagueKey], t)
	}
	for _, m := range in.Managers {
		d.managers[m.Key] = m
	}
	for _, p := range in.Players {
		d.players[p.Key] = p
	}
	for _, rel := range in.TeamManagers {
		t, okT := d.teams[rel.TeamKey]
		m, okM := d.managers[rel.ManagerKey]
		if !okT || !okM {
			continue
		}
		d.teamManagers[t.Key] = append(d.teamManagers[t.Key], m)
		d.managerTeams[m.Key] = append(d.managerTeams[m.Key], t)
	}
	for _, rel := range in.TeamPlayers {
		if p, ok := d.players[rel.PlayerKey]; ok {
			d.teamPlayers[rel.TeamKey] = append(d.teamPlayers[rel.TeamKey], p)
		}
	}

	sort.SliceStable(d.in.Matchups, func(i, j int) bool { return d.matchupLess(d.in.Matchups[i], d.in.Matchups[j]) })
	for _, m := range d.in.Matchups {
		d.leagueGames[m.LeagueKey] = append(d.leagueGames[m.LeagueKey], m)
		d.teamGames[m.TeamAKey] = append(d.teamGames[m.TeamAKey], m)
		if m.TeamBKey != nil {
			d.teamGames[*m.TeamBKey] = append(d.teamGames[*m.TeamBKey], m)
		}
	}
	for _, s := range in.Slots {
		if p, ok := d.players[s.PlayerKey]; ok && s.Player == nil {
			s.Player = p
		}
		d.matchupSlots[s.MatchupID] = append(d.matchupSlots[s.MatchupID], s)
	}

	for _, ms := range d.teamManagers {
		sort.Slice(ms, func(i, j int) bool { return ms[i].Key < ms[j].Key })
	}
	for _, ts := range d.managerTeams {
		d.sortTeams(ts)
	}
	for _, ts := range d.leagueTeams {
		sort.Slice(ts, func(i, j int) bool { return ts[i].Key < ts[j].Key })
	}
	return d
}

// matchupLess orders by season, week, then key.
func (d *Dataset) matchupLess(a, b *models.Matchup) bool {
	sa, sb := d.Season(a), d.Season(b)
	if sa != sb {
		return sa < sb
	}
	if a.Week != b.Week {
		return a.Week < b.Week
	}
	return a.Key < b.Key
}

func (d *Dataset) sortTeams(ts []*models.Team) {
	sort.SliceStable(ts, func(i, j int) bool {
		li, lj := d.leagues[ts[i].LeagueKey], d.leagues[ts[j].LeagueKey]
		if li != nil && lj != nil && li.Season != lj.Season {
			return li.Season < lj.Season
		}
		return ts[i].Key < ts[j].Key
	})
}

func (d *Dataset) Leagues() []*models.League        { return d.in.Leagues }
func (d *Dataset) Teams() []*models.Team            { return d.in.Teams }
func (d *Dataset) Managers() []*models.Manager      { return d.in.Managers }
func (d *Dataset) Players() []*models.Player        { return d.in.Players }
func (d *Dataset) Matchups() []*models.Matchup      { return d.in.Matchups }
func (d *Dataset) Slots() []*models.RosterSlot      { return d.in.Slots }
func (d *Dataset) TeamPlayers() []models.TeamPlayer { return d.in.TeamPlayers }

func (d *Dataset) League(key string) (*models.League, bool) {
	l, ok := d.leagues[key]
	return l, ok
}

func (d *Dataset) Team(key string) (*models.Team, bool) {
	t, ok := d.teams[key]
	return t, ok
}

func (d *Dataset) Manager(key string) (*models.Manager, bool) {
	m, ok := d.managers[key]
	return m, ok
}

func (d *Dataset) Player(key string) (*models.Player, bool) {
	p, ok := d.players[key]
	return p, ok
}

// Season returns the season a matchup was played in, or 0 if its league is unknown.
func (d *Dataset) Season(m *models.Matchup) int {
	if l, ok := d.leagues[m.LeagueKey]; ok {
		return l.Season
	}
	return 0
}

func (d *Dataset) TeamsInLeague(leagueKey string) []*models.Team {
	return d.leagueTeams[leagueKey]
}

func (d *Dataset) MatchupsInLeague(leagueKey string) []*models.Matchup {
	return d.leagueGames[leagueKey]
}

func (d *Dataset) ManagersOf(teamKey string) []*models.Manager {
	return d.teamManagers[teamKey]
}

func (d *Dataset) TeamsOf(managerKey string) []*models.Team {
	return d.managerTeams[managerKey]
}

func (d *Dataset) PlayersOf(teamKey string) []*models.Player {
	return d.teamPlayers[teamKey]
}

// MatchupsFor lists a team's matchups in season/week order. A maxWeek of
// zero or less means every week.
func (d *Dataset) MatchupsFor(teamKey string, maxWeek int) []*models.Matchup {
	all := d.teamGames[teamKey]
	if maxWeek <= 0 {
		return all
	}
	var out []*models.Matchup
	for _, m := range all {
		if m.Week <= maxWeek {
			out = append(out, m)
		}
	}
	return out
}

// SideFor returns a matchup from the team's point of view. A team that is
// not one of the two sides is a referential violation and yields
// models.ErrTeamNotInMatchup.
func (d *Dataset) SideFor(m *models.Matchup, teamKey string) (models.MatchupSide, error) {
	return m.Side(teamKey)
}

func (d *Dataset) SlotsFor(matchupID string) []*models.RosterSlot {
	return d.matchupSlots[matchupID]
}

// RosterFor returns one team's slots of a matchup in display order.
func (d *Dataset) RosterFor(matchupID, teamKey string) []*models.RosterSlot {
	var out []*models.RosterSlot
	for _, s := range d.matchupSlots[matchupID] {
		if s.TeamKey == teamKey {
			out = append(out, s)
		}
	}
	models.SortRosterSlots(out)
	return out
}

// MadePlayoffs reports whether the team played in a winners-bracket matchup.
func (d *Dataset) MadePlayoffs(teamKey string) bool {
	for _, m := range d.teamGames[teamKey] {
		if m.Week > models.RegularSeasonWeeks && m.IsPlayoffs {
			return true
		}
	}
	return false
}

// RegularSeasonRecord counts a team's decided regular-season wins and losses.
func (d *Dataset) RegularSeasonRecord(teamKey string) (wins, losses int) {
	for _, m := range d.MatchupsFor(teamKey, models.RegularSeasonWeeks) {
		if !m.IsFinalized() {
			continue
		}
		if *m.WinnerTeamKey == teamKey {
			wins++
		} else {
			losses++
		}
	}
	return wins, losses
}
