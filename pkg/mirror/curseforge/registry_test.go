// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package curseforge

import (
	"context"

	cfreg "github.com/mcmod-info-mirror/mcim-sync/pkg/registry/curseforge"
)

// fakeRegistry scripts the catalog API per method; unscripted methods panic.
type fakeRegistry struct {
	mod          func(id int) (*cfreg.Mod, error)
	modFiles     func(id, index, pageSize int) (*cfreg.FileList, error)
	mods         func(ids []int) ([]cfreg.Mod, error)
	files        func(ids []int) ([]cfreg.File, error)
	fingerprints func(fps []int64) (*cfreg.FingerprintsResult, error)
	categories   func(gameID, classID int, classOnly bool) ([]cfreg.Category, error)
	search       func(params cfreg.SearchParams) (*cfreg.SearchResult, error)
}

var _ cfreg.Registry = (*fakeRegistry)(nil)

func (f *fakeRegistry) Mod(_ context.Context, id int) (*cfreg.Mod, error) {
	if f.mod == nil {
		panic("unexpected Mod call")
	}
	return f.mod(id)
}

func (f *fakeRegistry) ModFiles(_ context.Context, id, index, pageSize int) (*cfreg.FileList, error) {
	if f.modFiles == nil {
		panic("unexpected ModFiles call")
	}
	return f.modFiles(id, index, pageSize)
}

func (f *fakeRegistry) Mods(_ context.Context, ids []int) ([]cfreg.Mod, error) {
	if f.mods == nil {
		panic("unexpected Mods call")
	}
	return f.mods(ids)
}

func (f *fakeRegistry) Files(_ context.Context, ids []int) ([]cfreg.File, error) {
	if f.files == nil {
		panic("unexpected Files call")
	}
	return f.files(ids)
}

func (f *fakeRegistry) Fingerprints(_ context.Context, fps []int64) (*cfreg.FingerprintsResult, error) {
	if f.fingerprints == nil {
		panic("unexpected Fingerprints call")
	}
	return f.fingerprints(fps)
}

func (f *fakeRegistry) Categories(_ context.Context, gameID, classID int, classOnly bool) ([]cfreg.Category, error) {
	if f.categories == nil {
		panic("unexpected Categories call")
	}
	return f.categories(gameID, classID, classOnly)
}

func (f *fakeRegistry) Search(_ context.Context, params cfreg.SearchParams) (*cfreg.SearchResult, error) {
	if f.search == nil {
		panic("unexpected Search call")
	}
	return f.search(params)
}
