// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

// Package curseforge describes the CurseForge catalog interface.
package curseforge

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mcmod-info-mirror/mcim-sync/internal/httpx"
	"github.com/mcmod-info-mirror/mcim-sync/internal/urlx"
	"github.com/pkg/errors"
)

var registryURL = urlx.MustParse("https://api.curseforge.com")

// APIKeyHeader carries the CurseForge API key on every request.
const APIKeyHeader = "x-api-key"

// SortField values accepted by the search endpoint.
// https://docs.curseforge.com/rest-api/#tocS_ModsSearchSortField
type SortField int

const (
	SortFeatured         SortField = 1
	SortPopularity       SortField = 2
	SortLastUpdated      SortField = 3
	SortName             SortField = 4
	SortAuthor           SortField = 5
	SortTotalDownloads   SortField = 6
	SortCategory         SortField = 7
	SortGameVersion      SortField = 8
	SortEarlyAccess      SortField = 9
	SortFeaturedReleased SortField = 10
	SortReleasedDate     SortField = 11
	SortRating           SortField = 12
)

// SortOrder is the search result ordering.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SearchParams narrows a mod search. Zero-valued fields are omitted.
type SearchParams struct {
	GameID    int
	ClassID   int
	SortField SortField
	SortOrder SortOrder
	Index     int
	PageSize  int
}

// SearchResult is one page of search hits.
type SearchResult struct {
	Data       []Mod      `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// FileList is one page of a mod's files.
type FileList struct {
	Data       []File     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Registry is the CurseForge catalog API.
type Registry interface {
	Mod(ctx context.Context, id int) (*Mod, error)
	ModFiles(ctx context.Context, id, index, pageSize int) (*FileList, error)
	Mods(ctx context.Context, ids []int) ([]Mod, error)
	Files(ctx context.Context, ids []int) ([]File, error)
	Fingerprints(ctx context.Context, fingerprints []int64) (*FingerprintsResult, error)
	Categories(ctx context.Context, gameID int, classID int, classOnly bool) ([]Category, error)
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)
}

// HTTPRegistry is a Registry implementation that uses the CurseForge HTTP API.
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
	ref := urlx.MustParse(path)
	return r.base().ResolveReference(ref).String()
}

// Mod returns the mod's authoritative metadata.
func (r HTTPRegistry) Mod(ctx context.Context, id int) (*Mod, error) {
	var body struct {
		Data Mod `json:"data"`
	}
	if err := httpx.GetJSON(ctx, r.Client, r.endpoint(fmt.Sprintf("/v1/mods/%d", id)), &body); err != nil {
		return nil, errors.Wrap(err, "fetching mod")
	}
	return &body.Data, nil
}

// ModFiles returns one page of the mod's file list.
func (r HTTPRegistry) ModFiles(ctx context.Context, id, index, pageSize int) (*FileList, error) {
	u := r.endpoint(fmt.Sprintf("/v1/mods/%d/files", id))
	q := url.Values{}
	q.Set("index", strconv.Itoa(index))
	q.Set("pageSize", strconv.Itoa(pageSize))
	var body FileList
	if err := httpx.GetJSON(ctx, r.Client, u+"?"+q.Encode(), &body); err != nil {
		return nil, errors.Wrap(err, "fetching mod files")
	}
	return &body, nil
}

// Mods bulk-fetches mods by id. Ids unknown upstream are absent from the result.
func (r HTTPRegistry) Mods(ctx context.Context, ids []int) ([]Mod, error) {
	var body struct {
		Data []Mod `json:"data"`
	}
	payload := map[string][]int{"modIds": ids}
	if err := httpx.PostJSON(ctx, r.Client, r.endpoint("/v1/mods"), payload, &body); err != nil {
		return nil, errors.Wrap(err, "fetching mods")
	}
	return body.Data, nil
}

// Files bulk-fetches files by id.
func (r HTTPRegistry) Files(ctx context.Context, ids []int) ([]File, error) {
	var body struct {
		Data []File `json:"data"`
	}
	payload := map[string][]int{"fileIds": ids}
	if err := httpx.PostJSON(ctx, r.Client, r.endpoint("/v1/mods/files"), payload, &body); err != nil {
		return nil, errors.Wrap(err, "fetching files")
	}
	return body.Data, nil
}

// Fingerprints resolves fingerprints to their files. The endpoint is
// game-scoped.
func (r HTTPRegistry) Fingerprints(ctx context.Context, fingerprints []int64) (*FingerprintsResult, error) {
	var body struct {
		Data FingerprintsResult `json:"data"`
	}
	payload := map[string][]int64{"fingerprints": fingerprints}
	u := r.endpoint(fmt.Sprintf("/v1/fingerprints/%d", GameIDMinecraft))
	if err := httpx.PostJSON(ctx, r.Client, u, payload, &body); err != nil {
		return nil, errors.Wrap(err, "fetching fingerprints")
	}
	return &body.Data, nil
}

// Categories returns the category enumeration for a game. classID scopes to a
// class; classOnly restricts to class-level categories.
func (r HTTPRegistry) Categories(ctx context.Context, gameID int, classID int, classOnly bool) ([]Category, error) {
	q := url.Values{}
	q.Set("gameId", strconv.Itoa(gameID))
	if classID != 0 {
		q.Set("classId", strconv.Itoa(classID))
	} else if classOnly {
		q.Set("classOnly", "true")
	}
	var body struct {
		Data []Category `json:"data"`
	}
	if err := httpx.GetJSON(ctx, r.Client, r.endpoint("/v1/categories")+"?"+q.Encode(), &body); err != nil {
		return nil, errors.Wrap(err, "fetching categories")
	}
	return body.Data, nil
}

// Search returns one page of search hits.
func (r HTTPRegistry) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	q := url.Values{}
	gameID := params.GameID
	if gameID == 0 {
		gameID = GameIDMinecraft
	}
	q.Set("gameId", strconv.Itoa(gameID))
	if params.ClassID != 0 {
		q.Set("classId", strconv.Itoa(params.ClassID))
	}
	if params.SortField != 0 {
		q.Set("sortField", strconv.Itoa(int(params.SortField)))
	}
	if params.SortOrder != "" {
		q.Set("sortOrder", string(params.SortOrder))
	}
	q.Set("index", strconv.Itoa(params.Index))
	pageSize := params.PageSize
	if pageSize == 0 {
		pageSize = 50
	}
	q.Set("pageSize", strconv.Itoa(pageSize))
	var body SearchResult
	if err := httpx.GetJSON(ctx, r.Client, r.endpoint("/v1/mods/search")+"?"+q.Encode(), &body); err != nil {
		return nil, errors.Wrap(err, "searching mods")
	}
	return &body, nil
}
