// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package modrinth

import (
	"context"

	mrreg "github.com/mcmod-info-mirror/mcim-sync/pkg/registry/modrinth"
)

// fakeRegistry scripts the catalog API per method; unscripted methods panic.
type fakeRegistry struct {
	project         func(id string) (*mrreg.Project, error)
	projectVersions func(id string) ([]mrreg.Version, error)
	projects        func(ids []string) ([]mrreg.Project, error)
	versions        func(ids []string) ([]mrreg.Version, error)
	versionFiles    func(hashes []string, algorithm string) (map[string]mrreg.Version, error)
	categories      func() ([]mrreg.Category, error)
	loaders         func() ([]mrreg.Loader, error)
	gameVersions    func() ([]mrreg.GameVersion, error)
	search          func(params mrreg.SearchParams) (*mrreg.SearchResult, error)
}

var _ mrreg.Registry = (*fakeRegistry)(nil)

func (f *fakeRegistry) Project(_ context.Context, id string) (*mrreg.Project, error) {
	if f.project == nil {
		panic("unexpected Project call")
	}
	return f.project(id)
}

func (f *fakeRegistry) ProjectVersions(_ context.Context, id string) ([]mrreg.Version, error) {
	if f.projectVersions == nil {
		panic("unexpected ProjectVersions call")
	}
	return f.projectVersions(id)
}

func (f *fakeRegistry) Projects(_ context.Context, ids []string) ([]mrreg.Project, error) {
	if f.projects == nil {
		panic("unexpected Projects call")
	}
	return f.projects(ids)
}

func (f *fakeRegistry) Versions(_ context.Context, ids []string) ([]mrreg.Version, error) {
	if f.versions == nil {
		panic("unexpected Versions call")
	}
	return f.versions(ids)
}

func (f *fakeRegistry) VersionFiles(_ context.Context, hashes []string, algorithm string) (map[string]mrreg.Version, error) {
	if f.versionFiles == nil {
		panic("unexpected VersionFiles call")
	}
	return f.versionFiles(hashes, algorithm)
}

func (f *fakeRegistry) Categories(context.Context) ([]mrreg.Category, error) {
	if f.categories == nil {
		panic("unexpected Categories call")
	}
	return f.categories()
}

func (f *fakeRegistry) Loaders(context.Context) ([]mrreg.Loader, error) {
	if f.loaders == nil {
		panic("unexpected Loaders call")
	}
	return f.loaders()
}

func (f *fakeRegistry) GameVersions(context.Context) ([]mrreg.GameVersion, error) {
	if f.gameVersions == nil {
		panic("unexpected GameVersions call")
	}
	return f.gameVersions()
}

func (f *fakeRegistry) Search(_ context.Context, params mrreg.SearchParams) (*mrreg.SearchResult, error) {
	if f.search == nil {
		panic("unexpected Search call")
	}
	return f.search(params)
}
