package imdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const lastModifiedLayout = "2006-01-02T15:04:05Z"

// WatchlistInfo is the cheap freshness signal scraped off the watchlist
// page, available without queuing a full export.
type WatchlistInfo struct {
	UserID       string
	ListID       string
	LastModified time.Time
}

// WatchlistInfo scrapes the watchlist page for the owning user id, the
// backing list id and the time the list last changed.
func (c *Client) WatchlistInfo(ctx context.Context) (WatchlistInfo, error) {
	ctx, span := tracer.Start(ctx, "WatchlistInfo")
	defer span.End()

	props, err := c.fetchPageProps(ctx, watchlistPath)
	if err != nil {
		return WatchlistInfo{}, err
	}

	var page struct {
		AboveTheFoldData struct {
			AuthorID string `json:"authorId"`
			ListID   string `json:"listId"`
		} `json:"aboveTheFoldData"`
		MainColumnData struct {
			PredefinedList struct {
				ID               string `json:"id"`
				LastModifiedDate string `json:"lastModifiedDate"`
			} `json:"predefinedList"`
		} `json:"mainColumnData"`
	}
	err = json.Unmarshal(props, &page)
	if err != nil {
		return WatchlistInfo{}, fmt.Errorf("parse watchlist page: %w", err)
	}

	info := WatchlistInfo{
		UserID: page.AboveTheFoldData.AuthorID,
		ListID: page.AboveTheFoldData.ListID,
	}
	if info.ListID == "" {
		info.ListID = page.MainColumnData.PredefinedList.ID
	}
	if !strings.HasPrefix(info.UserID, "ur") {
		return WatchlistInfo{}, fmt.Errorf("parse watchlist page: expected a user id, got %q", info.UserID)
	}

	raw := page.MainColumnData.PredefinedList.LastModifiedDate
	if raw != "" {
		info.LastModified, err = time.Parse(lastModifiedLayout, raw)
		if err != nil {
			return WatchlistInfo{}, fmt.Errorf("parse watchlist last modified date: %w", err)
		}
	}
	return info, nil
}

// RecentlyRatedIDs scrapes the ratings page for the title ids of the most
// recently rated entries, newest first.
func (c *Client) RecentlyRatedIDs(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "RecentlyRatedIDs")
	defer span.End()

	props, err := c.fetchPageProps(ctx, ratingsPath)
	if err != nil {
		return nil, err
	}

	var page struct {
		MainColumnData struct {
			AdvancedTitleSearch struct {
				Edges []struct {
					Node struct {
						Title struct {
							ID string `json:"id"`
						} `json:"title"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"advancedTitleSearch"`
		} `json:"mainColumnData"`
	}
	err = json.Unmarshal(props, &page)
	if err != nil {
		return nil, fmt.Errorf("parse ratings page: %w", err)
	}

	edges := page.MainColumnData.AdvancedTitleSearch.Edges
	ids := make([]string, 0, len(edges))
	for _, edge := range edges {
		if edge.Node.Title.ID != "" {
			ids = append(ids, edge.Node.Title.ID)
		}
	}
	return ids, nil
}
