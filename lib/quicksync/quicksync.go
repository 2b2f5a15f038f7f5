// Package quicksync computes the minimal watchlist mutations implied by
// rating activity: once a title has been rated it no longer belongs on
// the watchlist.
package quicksync

import (
	"imdb-data/lib/export"
)

type ActionOp int

const (
	OpAdd ActionOp = iota
	OpRemove
)

func (op ActionOp) String() string {
	if op == OpAdd {
		return "add"
	}
	return "remove"
}

// Action is a single watchlist mutation. The caller issues the actual
// request; this package only decides what should happen.
type Action struct {
	Op      ActionOp
	TitleID string
}

// titleColumn is the title id column of IMDB's ratings export.
const titleColumn = "Const"

// Reconcile emits a Remove action for every rated title still present on
// the watchlist, in the order rating rows appear. Duplicate title ids in
// the ratings export produce a single action, first occurrence wins.
func Reconcile(ratings export.Export, watchlist map[string]struct{}) ([]Action, error) {
	titleIDs, err := ratings.ColumnValues(titleColumn)
	if err != nil {
		return nil, err
	}

	var actions []Action
	seen := map[string]bool{}
	for _, id := range titleIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		if _, onWatchlist := watchlist[id]; onWatchlist {
			actions = append(actions, Action{Op: OpRemove, TitleID: id})
		}
	}
	return actions, nil
}
