package upstream

// detailsEnvelope is the subset of GET /league/{id}/details we read.
type detailsEnvelope struct {
	LeagueEntries []leagueEntry   `json:"league_entries"`
	Standings     []standingEntry `json:"standings"`
}

type leagueEntry struct {
	ID              int64  `json:"id"`
	EntryName       string `json:"entry_name"`
	PlayerFirstName string `json:"player_first_name"`
	PlayerLastName  string `json:"player_last_name"`
	ShortName       string `json:"short_name"`
	WaiverPick      int    `json:"waiver_pick"`
}

type standingEntry struct {
	LeagueEntry int64 `json:"league_entry"`
	Rank        int   `json:"rank"`
	RankSort    int   `json:"rank_sort"`
	Total       int   `json:"total"`
	EventTotal  int   `json:"event_total"`
	LastRank    *int  `json:"last_rank"`
}

// bootstrapEnvelope is the subset of GET /bootstrap-static we read.
type bootstrapEnvelope struct {
	Events struct {
		Data []event `json:"data"`
	} `json:"events"`
}

// event labels come from ID, not the upstream name.
type event struct {
	ID           int    `json:"id"`
	DeadlineTime string `json:"deadline_time"`
}
