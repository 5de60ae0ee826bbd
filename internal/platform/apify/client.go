// Package apify wraps the Apify actor-run API used by both external
// feeds: the DexScreener pair scraper (discovery) and the tweet scraper
// (posts). Both follow the same submit / poll / fetch-dataset shape.
package apify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cryptolens/womtracker/internal/domain"
)

// Run statuses reported by the actor-run endpoint.
const (
	runSucceeded = "SUCCEEDED"
	runFailed    = "FAILED"
	runTimedOut  = "TIMED_OUT"
	runAborted   = "ABORTED"
)

// Client is a thin REST client for the Apify v2 API.
type Client struct {
	http  *resty.Client
	token string
}

// New creates a Client for the given API root and token.
func New(baseURL, token string) *Client {
	httpc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)

	return &Client{http: httpc, token: token}
}

// runEnvelope is the common wrapper around actor-run responses.
type runEnvelope struct {
	Data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"data"`
}

// StartRun submits an actor run with the given input and returns the run
// ID. This is the "submit" leg of the discovery-feed contract.
func (c *Client) StartRun(ctx context.Context, actorID string, input any) (string, error) {
	var env runEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token", c.token).
		SetBody(input).
		SetResult(&env).
		Post("/v2/acts/" + actorID + "/runs")
	if err != nil {
		return "", fmt.Errorf("apify: start run for actor %s: %w", actorID, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("apify: start run for actor %s: status %s: %w",
			actorID, resp.Status(), domain.ErrExternalService)
	}
	if env.Data.ID == "" {
		return "", fmt.Errorf("apify: start run for actor %s: empty run id: %w",
			actorID, domain.ErrExternalService)
	}
	return env.Data.ID, nil
}

// runInfo fetches the current status and default dataset of a run.
func (c *Client) runInfo(ctx context.Context, runID string) (status, datasetID string, err error) {
	var env runEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token", c.token).
		SetResult(&env).
		Get("/v2/actor-runs/" + runID)
	if err != nil {
		return "", "", fmt.Errorf("apify: poll run %s: %w", runID, err)
	}
	if resp.IsError() {
		return "", "", fmt.Errorf("apify: poll run %s: status %s: %w",
			runID, resp.Status(), domain.ErrExternalService)
	}
	return env.Data.Status, env.Data.DefaultDatasetID, nil
}

// WaitForRun polls the run until it reaches a terminal status and returns
// the dataset ID on success. Polling is bounded by maxWait; exceeding it
// is an external-service failure surfaced to the caller, never an
// indefinite hang.
func (c *Client) WaitForRun(ctx context.Context, runID string, pollInterval, maxWait time.Duration) (string, error) {
	deadline := time.Now().Add(maxWait)

	for {
		status, datasetID, err := c.runInfo(ctx, runID)
		if err != nil {
			return "", err
		}

		switch status {
		case runSucceeded:
			return datasetID, nil
		case runFailed, runTimedOut, runAborted:
			return "", fmt.Errorf("apify: run %s ended with status %s: %w",
				runID, status, domain.ErrExternalService)
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("apify: run %s still %s after %s: %w",
				runID, status, maxWait, domain.ErrExternalService)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// DatasetItems fetches all items of a dataset into out, which must be a
// pointer to a slice of the expected item shape.
func (c *Client) DatasetItems(ctx context.Context, datasetID string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token", c.token).
		SetResult(out).
		Get("/v2/datasets/" + datasetID + "/items")
	if err != nil {
		return fmt.Errorf("apify: fetch dataset %s: %w", datasetID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("apify: fetch dataset %s: status %s: %w",
			datasetID, resp.Status(), domain.ErrExternalService)
	}
	return nil
}
