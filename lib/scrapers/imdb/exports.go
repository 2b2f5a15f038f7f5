package imdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"imdb-data/lib/export"
)

// ExportState is the lifecycle state of an export on imdb's side.
type ExportState string

const (
	StateNotFound   ExportState = "NOT_FOUND"
	StateProcessing ExportState = "PROCESSING"
	StateReady      ExportState = "READY"
)

// ExportNode is one entry on the /exports/ page.
type ExportNode struct {
	StartedOn string `json:"startedOn"`
	Status    struct {
		ID string `json:"id"`
	} `json:"status"`
	ResultURL          string `json:"resultUrl"`
	ExportType         string `json:"exportType"`
	ListExportMetadata struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"listExportMetadata"`
}

func (n ExportNode) startedOn() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, n.StartedOn)
}

func (n ExportNode) matches(target Target) bool {
	switch {
	case target == TargetWatchlist:
		return n.ExportType == "LIST" && n.ListExportMetadata.Name == "WATCHLIST"
	case target == TargetRatings:
		return n.ExportType == "RATINGS"
	case target.IsList():
		return n.ExportType == "LIST" && n.ListExportMetadata.ID == string(target)
	}
	return false
}

// ExportNodes scrapes the /exports/ page for the user's current exports,
// newest first.
func (c *Client) ExportNodes(ctx context.Context) ([]ExportNode, error) {
	ctx, span := tracer.Start(ctx, "ExportNodes")
	defer span.End()

	props, err := c.fetchPageProps(ctx, exportsPath)
	if err != nil {
		return nil, err
	}

	var page struct {
		MainColumnData struct {
			GetExports struct {
				Edges []struct {
					Node ExportNode `json:"node"`
				} `json:"edges"`
			} `json:"getExports"`
		} `json:"mainColumnData"`
	}
	err = json.Unmarshal(props, &page)
	if err != nil {
		return nil, fmt.Errorf("parse exports page: %w", err)
	}

	nodes := make([]ExportNode, 0, len(page.MainColumnData.GetExports.Edges))
	for _, edge := range page.MainColumnData.GetExports.Edges {
		nodes = append(nodes, edge.Node)
	}
	slog.DebugContext(ctx, "found exports", "count", len(nodes))
	return nodes, nil
}

// ExportStatus finds the newest export matching the target started after
// the given time and reports its state; the result url is only set when
// the state is ready.
func (c *Client) ExportStatus(ctx context.Context, target Target, startedAfter time.Time) (ExportState, string, error) {
	nodes, err := c.ExportNodes(ctx)
	if err != nil {
		return "", "", err
	}

	var matched []ExportNode
	for _, node := range nodes {
		if !node.matches(target) {
			continue
		}
		started, err := node.startedOn()
		if err != nil {
			return "", "", fmt.Errorf("parse export start time: %w", err)
		}
		if started.After(startedAfter) {
			matched = append(matched, node)
		}
	}
	slog.DebugContext(ctx, "found matching exports", "target", target, "count", len(matched))

	if len(matched) == 0 {
		return StateNotFound, "", nil
	}
	node := matched[0]
	if node.Status.ID == string(StateProcessing) {
		return StateProcessing, "", nil
	}
	if node.Status.ID != string(StateReady) {
		return "", "", fmt.Errorf("unexpected export status %q for %s", node.Status.ID, target)
	}
	if !strings.HasPrefix(node.ResultURL, c.bucketPrefix) {
		return "", "", fmt.Errorf("refusing export result url outside the export bucket: %q", node.ResultURL)
	}
	return StateReady, node.ResultURL, nil
}

const startListExportQuery = `
mutation StartListExport($listId: ID!) {
  createListExport(input: {listId: $listId}) {
    status {
      id
    }
  }
}
`

const startRatingsExportQuery = `
mutation StartRatingsExport {
  createRatingsExport {
    status {
      id
    }
  }
}
`

// QueueExport asks imdb to start generating an export. The predefined
// watchlist cannot be queued directly; resolve it to its list id first
// (see Export).
func (c *Client) QueueExport(ctx context.Context, target Target) error {
	ctx, span := tracer.Start(ctx, "QueueExport")
	defer span.End()

	var body map[string]any
	var responseKey string
	switch {
	case target == TargetRatings:
		body = map[string]any{
			"query":         startRatingsExportQuery,
			"operationName": "StartRatingsExport",
			"variables":     map[string]string{},
		}
		responseKey = "createRatingsExport"
	case target.IsList():
		body = map[string]any{
			"query":         startListExportQuery,
			"operationName": "StartListExport",
			"variables":     map[string]string{"listId": string(target)},
		}
		responseKey = "createListExport"
	default:
		return fmt.Errorf("cannot queue export for target %q", target)
	}

	res, err := c.graphqlRequest().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(body).
		Post(c.graphqlURL)
	if err != nil {
		return fmt.Errorf("queue export %s: %w", target, err)
	}
	if res.IsError() {
		return fmt.Errorf("queue export %s: status %d", target, res.StatusCode())
	}

	var result struct {
		Data map[string]struct {
			Status struct {
				ID string `json:"id"`
			} `json:"status"`
		} `json:"data"`
	}
	err = json.Unmarshal(res.Body(), &result)
	if err != nil {
		return fmt.Errorf("queue export %s: %w", target, err)
	}
	if result.Data[responseKey].Status.ID != string(StateProcessing) {
		return fmt.Errorf("queue export %s: unexpected status %q", target, result.Data[responseKey].Status.ID)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resolveExportURL queues the export if it doesn't exist yet and polls
// with doubling backoff until it is ready or the timeout elapses.
func (c *Client) resolveExportURL(ctx context.Context, target Target, startedAfter time.Time) (string, error) {
	deadline := time.Now().Add(c.exportTimeout)
	wait := time.Second

	for {
		state, url, err := c.ExportStatus(ctx, target, startedAfter)
		if err != nil {
			return "", err
		}

		switch state {
		case StateReady:
			return url, nil
		case StateNotFound:
			slog.WarnContext(ctx, "export not found, enqueuing", "target", target)
			err := c.QueueExport(ctx, target)
			if err != nil {
				return "", err
			}
			err = sleepContext(ctx, time.Second)
			if err != nil {
				return "", err
			}
		case StateProcessing:
			if time.Now().Add(wait).After(deadline) {
				return "", fmt.Errorf("export %s: %w", target, ErrExportTimeout)
			}
			slog.WarnContext(ctx, "export is in progress, waiting", "target", target, "wait", wait)
			err = sleepContext(ctx, wait)
			if err != nil {
				return "", err
			}
			wait *= 2
		}
	}
}

// Export retrieves the current export for the target as parsed tabular
// data. The response is treated as untyped text: no column semantics live
// here. The predefined watchlist is resolved to its backing list id since
// only list ids can be queued.
func (c *Client) Export(ctx context.Context, target Target, startedAfter time.Time) (export.Export, error) {
	ctx, span := tracer.Start(ctx, "Export")
	defer span.End()

	if target == TargetWatchlist {
		info, err := c.WatchlistInfo(ctx)
		if err != nil {
			return export.Export{}, err
		}
		target = Target(info.ListID)
	}

	url, err := c.resolveExportURL(ctx, target, startedAfter)
	if err != nil {
		return export.Export{}, err
	}

	res, err := c.download.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return export.Export{}, fmt.Errorf("download export %s: %w", target, err)
	}
	if res.IsError() {
		return export.Export{}, fmt.Errorf("download export %s: status %d", target, res.StatusCode())
	}

	parsed, err := export.ParseCSV(bytes.NewReader(res.Body()))
	if err != nil {
		return export.Export{}, fmt.Errorf("export %s: %w", target, err)
	}
	return parsed, nil
}
