// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

// Package modrinth describes the Modrinth catalog interface.
package modrinth

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/mcmod-info-mirror/mcim-sync/internal/httpx"
	"github.com/mcmod-info-mirror/mcim-sync/internal/urlx"
	"github.com/pkg/errors"
)

var registryURL = urlx.MustParse("https://api.modrinth.com")

// Hash algorithms accepted by the version_files endpoint.
const (
	AlgorithmSHA1   = "sha1"
	AlgorithmSHA512 = "sha512"
)

// IndexNewest sorts search results by publication recency.
const IndexNewest = "newest"

// SearchParams narrows a project search. Zero-valued fields are omitted.
type SearchParams struct {
	Query  string
	Offset int
	Limit  int
	Index  string
}

// Registry is the Modrinth catalog API.
type Registry interface {
	Project(ctx context.Context, id string) (*Project, error)
	ProjectVersions(ctx context.Context, id string) ([]Version, error)
	Projects(ctx context.Context, ids []string) ([]Project, error)
	Versions(ctx context.Context, ids []string) ([]Version, error)
	VersionFiles(ctx context.Context, hashes []string, algorithm string) (map[string]Version, error)
	Categories(ctx context.Context) ([]Category, error)
	Loaders(ctx context.Context) ([]Loader, error)
	GameVersions(ctx context.Context) ([]GameVersion, error)
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)
}

// HTTPRegistry is a Registry implementation that uses the Modrinth HTTP API.
type HTTPRegistry struct {
	Client  httpx.BasicClient
	BaseURL *url.URL
}

var _ Registry = HTTPRegistry{}

func (r HTTPRegistry) base() *url.URL {
	if r.BaseURL != nil {
		return r.BaseURL
	}
	return registryURL
}

func (r HTTPRegistry) endpoint(path string) string {
	return r.base().ResolveReference(urlx.MustParse(path)).String()
}

// Project returns the project's authoritative metadata.
func (r HTTPRegistry) Project(ctx context.Context, id string) (*Project, error) {
	var p Project
	if err := httpx.GetJSON(ctx, r.Client, r.endpoint("/v2/project/"+url.PathEscape(id)), &p); err != nil {
		return nil, errors.Wrap(err, "fetching project")
	}
	return &p, nil
}

// ProjectVersions returns the project's complete version list.
func (r HTTPRegistry) ProjectVersions(ctx context.Context, id string) ([]Version, error) {
	var vs []Version
	if err := httpx.GetJSON(ctx, r.Client, r.endpoint("/v2/project/"+url.PathEscape(id)+"/version"), &vs); err != nil {
		return nil, errors.Wrap(err, "fetching project versions")
	}
	return vs, nil
}

func idsParam(ids []string) string {
	b, _ := json.Marshal(ids)
	return string(b)
}

// Projects bulk-fetches projects by id. Ids unknown upstream are absent from
// the result.
func (r HTTPRegistry) Projects(ctx context.Context, ids []string) ([]Project, error) {
	q := url.Values{}
	q.Set("ids", idsParam(ids))
	var ps []Project
	if err := httpx.GetJSON(ctx, r.Client, r.endpoint("/v2/projects")+"?"+q.Encode(), &ps); err != nil {
		return nil, errors.Wrap(err, "fetching projects")
	}
	return ps, nil
}

// Versions bulk-fetches versions by id.
func (r HTTPRegistry) Versions(ctx context.Context, ids []string) ([]Version, error) {
	q := url.Values{}
	q.Set("ids", idsParam(ids))
	var vs []Version
	if err := httpx.GetJSON(ctx, r.Client, r.endpoint("/v2/versions")+"?"+q.Encode(), &vs); err != nil {
		return nil, errors.Wrap(err, "fetching versions")
	}
	return vs, nil
}

// VersionFiles resolves file hashes to their versions.
func (r HTTPRegistry) VersionFiles(ctx context.Context, hashes []string, algorithm string) (map[string]Version, error) {
	payload := map[string]any{"hashes": hashes, "algorithm": algorithm}
	out := make(map[string]Version)
	if err := httpx.PostJSON(ctx, r.Client, r.endpoint("/v2/version_files"), payload, &out); err != nil {
		return nil, errors.Wrap(err, "fetching version files")
	}
	return out, nil
}

// Categories returns the category tag enumeration.
func (r HTTPRegistry) Categories(ctx context.Context) ([]Category, error) {
	var cs []Category
	if err := httpx.GetJSON(ctx, r.Client, r.endpoint("/v2/tag/category"), &cs); err != nil {
		return nil, errors.Wrap(err, "fetching categories")
	}
	return cs, nil
}

// Loaders returns the loader tag enumeration.
func (r HTTPRegistry) Loaders(ctx context.Context) ([]Loader, error) {
	var ls []Loader
	if err := httpx.GetJSON(ctx, r.Client, r.endpoint("/v2/tag/loader"), &ls); err != nil {
		return nil, errors.Wrap(err, "fetching loaders")
	}
	return ls, nil
}

// GameVersions returns the game version tag enumeration.
func (r HTTPRegistry) GameVersions(ctx context.Context) ([]GameVersion, error) {
	var gs []GameVersion
	if err := httpx.GetJSON(ctx, r.Client, r.endpoint("/v2/tag/game_version"), &gs); err != nil {
		return nil, errors.Wrap(err, "fetching game versions")
	}
	return gs, nil
}

// Search returns one page of search hits.
func (r HTTPRegistry) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	q := url.Values{}
	if params.Query != "" {
		q.Set("query", params.Query)
	}
	q.Set("offset", strconv.Itoa(params.Offset))
	limit := params.Limit
	if limit == 0 {
		limit = 100
	}
	q.Set("limit", strconv.Itoa(limit))
	if params.Index != "" {
		q.Set("index", params.Index)
	}
	var res SearchResult
	if err := httpx.GetJSON(ctx, r.Client, r.endpoint("/v2/search")+"?"+q.Encode(), &res); err != nil {
		return nil, errors.Wrap(err, "searching projects")
	}
	return &res, nil
}
