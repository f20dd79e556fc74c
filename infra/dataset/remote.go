package dataset

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/CodeRockstar24/SCM-PredictiveModelling/auth"
	"github.com/CodeRockstar24/SCM-PredictiveModelling/core/model"
)

// Open loads the dataset from cfg.URL when set, otherwise from cfg.Path.
func Open(ctx context.Context, cfg Config) (*model.Dataset, LoadStats, error) {
	cfg.SetDefaults()
	if cfg.URL == "" {
		return LoadFile(cfg)
	}
	return Fetch(ctx, http.DefaultClient, cfg)
}

// Fetch downloads the CSV export at cfg.URL. With credentials configured the
// request carries a bearer token, refreshed once if the server answers 401.
func Fetch(ctx context.Context, client *http.Client, cfg Config) (*model.Dataset, LoadStats, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	var creds *auth.ClientCred
	if cfg.Auth.Enabled() {
		creds = auth.NewClientCred(cfg.Auth)
	}
	resp, err := get(ctx, client, cfg.URL, creds, false)
	if err == nil && resp.StatusCode == http.StatusUnauthorized && creds != nil {
		_ = resp.Body.Close()
		resp, err = get(ctx, client, cfg.URL, creds, true)
	}
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("fetch dataset: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, LoadStats{}, fmt.Errorf("fetch dataset: unexpected status %s", resp.Status)
	}
	return Load(resp.Body, cfg)
}

func get(ctx context.Context, client *http.Client, url string, creds *auth.ClientCred, refresh bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv")
	if creds != nil {
		if refresh {
			if _, err := creds.ForceRefresh(ctx); err != nil {
				return nil, err
			}
		}
		if err := creds.SetAuthHeader(ctx, req); err != nil {
			return nil, err
		}
	}
	return client.Do(req)
}
