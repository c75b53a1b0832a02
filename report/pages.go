package report

import (
	"fmt"

	"github.com/brianbrunner/just2guys/brackets"
	"github.com/brianbrunner/just2guys/dataset"
	"github.com/brianbrunner/just2guys/models"
	"github.com/brianbrunner/just2guys/records"
	"github.com/brianbrunner/just2guys/rivalry"
	"github.com/brianbrunner/just2guys/standings"
)

type leagueSummary struct {
	League   *models.League
	Champion *models.Team
}

type indexPage struct {
	Title    string
	Leagues  []leagueSummary
	Managers []*models.Manager
}

type leaguePage struct {
	Title     string
	League    *models.League
	Standings []models.Standing
	Rounds    []brackets.Round
}

type teamGame struct {
	Matchup *models.Matchup
	Side    models.MatchupSide
}

type teamPage struct {
	Title        string
	Team         *models.Team
	League       *models.League
	Managers     []*models.Manager
	Wins         int
	Losses       int
	MadePlayoffs bool
	Games        []teamGame
	Players      []*models.Player
}

type matchupPage struct {
	Title   string
	Matchup *models.Matchup
	League  *models.League
	TeamA   *models.Team
	TeamB   *models.Team
	RosterA []*models.RosterSlot
	RosterB []*models.RosterSlot
}

type managerPage struct {
	Title     string
	Manager   *models.Manager
	Teams     []*models.Team
	Rivalries []*rivalry.Record
}

type rivalryPage struct {
	Title    string
	Manager  *models.Manager
	Opponent *models.Manager
	Record   *rivalry.Record
}

type recordsPage struct {
	Title  string
	Tables []records.Table
}

func buildArtifacts(ds *dataset.Dataset, rivalries rivalry.Records, tables []records.Table) []artifact {
	var out []artifact

	index := indexPage{Title: "Just 2 Guys", Managers: ds.Managers()}
	for _, l := range ds.Leagues() {
		summary := leagueSummary{League: l}
		if key, ok := brackets.Champion(ds.MatchupsInLeague(l.Key)); ok {
			summary.Champion, _ = ds.Team(key)
		}
		index.Leagues = append(index.Leagues, summary)

		teams := ds.TeamsInLeague(l.Key)
		games := ds.MatchupsInLeague(l.Key)
		out = append(out, artifact{
			key:  pageURL("", pageLeague, l.Key),
			page: pageLeague,
			data: leaguePage{
				Title:     fmt.Sprintf("%s (%d)", l.Name, l.Season),
				League:    l,
				Standings: standings.Compute(teams, games),
				Rounds:    brackets.Rounds(games),
			},
		})
	}
	out = append([]artifact{{key: "index.html", page: pageIndex, data: index}}, out...)

	for _, t := range ds.Teams() {
		league, _ := ds.League(t.LeagueKey)
		wins, losses := ds.RegularSeasonRecord(t.Key)
		page := teamPage{
			Title:        t.Name,
			Team:         t,
			League:       league,
			Managers:     ds.ManagersOf(t.Key),
			Wins:         wins,
			Losses:       losses,
			MadePlayoffs: ds.MadePlayoffs(t.Key),
			Players:      ds.PlayersOf(t.Key),
		}
		for _, m := range ds.MatchupsFor(t.Key, 0) {
			side, err := ds.SideFor(m, t.Key)
			if err != nil {
				continue
			}
			page.Games = append(page.Games, teamGame{Matchup: m, Side: side})
		}
		out = append(out, artifact{key: pageURL("", pageTeam, t.Key), page: pageTeam, data: page})
	}

	for _, m := range ds.Matchups() {
		if m.IsPlaceholder() {
			continue
		}
		league, _ := ds.League(m.LeagueKey)
		teamA, _ := ds.Team(m.TeamAKey)
		teamB, _ := ds.Team(*m.TeamBKey)
		if teamA == nil || teamB == nil {
			continue
		}
		out = append(out, artifact{
			key:  pageURL("", pageMatchup, m.ID),
			page: pageMatchup,
			data: matchupPage{
				Title:   fmt.Sprintf("%s vs %s", teamA.Name, teamB.Name),
				Matchup: m,
				League:  league,
				TeamA:   teamA,
				TeamB:   teamB,
				RosterA: ds.RosterFor(m.ID, teamA.Key),
				RosterB: ds.RosterFor(m.ID, teamB.Key),
			},
		})
	}

	for _, mgr := range ds.Managers() {
		recs := rivalries.For(mgr.Key)
		out = append(out, artifact{
			key:  pageURL("", pageManager, mgr.Key),
			page: pageManager,
			data: managerPage{Title: mgr.Nickname, Manager: mgr, Teams: ds.TeamsOf(mgr.Key), Rivalries: recs},
		})
		for _, rec := range recs {
			opp, ok := ds.Manager(rec.OpponentKey)
			if !ok {
				continue
			}
			out = append(out, artifact{
				key:  rivalryKey(mgr.Key, opp.Key),
				page: pageRivalry,
				data: rivalryPage{
					Title:    fmt.Sprintf("%s vs %s", mgr.Nickname, opp.Nickname),
					Manager:  mgr,
					Opponent: opp,
					Record:   rec,
				},
			})
		}
	}

	out = append(out, artifact{key: "records.html", page: pageRecords, data: recordsPage{Title: "Records", Tables: tables}})
	return out
}
