// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package modrinth

import (
	"time"

	"github.com/mcmod-info-mirror/mcim-sync/internal/store"
)

// Collection names for stored Modrinth entities.
const (
	ProjectsCollection     = "modrinth_projects"
	VersionsCollection     = "modrinth_versions"
	FilesCollection        = "modrinth_files"
	CategoriesCollection   = "modrinth_categories"
	LoadersCollection      = "modrinth_loaders"
	GameVersionsCollection = "modrinth_game_versions"
)

type DonationURL struct {
	ID       string `json:"id" bson:"id"`
	Platform string `json:"platform" bson:"platform"`
	URL      string `json:"url" bson:"url"`
}

type License struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
	URL  string `json:"url" bson:"url"`
}

type GalleryItem struct {
	URL         string     `json:"url" bson:"url"`
	Featured    bool       `json:"featured" bson:"featured"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	Created     *time.Time `json:"created" bson:"created"`
	Ordering    *int       `json:"ordering" bson:"ordering"`
}

// Project is a Modrinth catalog entity. It doubles as the stored document in
// modrinth_projects, keyed by the project id.
type Project struct {
	ID                   string        `json:"id" bson:"_id"`
	Slug                 string        `json:"slug" bson:"slug"`
	Title                string        `json:"title" bson:"title"`
	Description          string        `json:"description" bson:"description"`
	Categories           []string      `json:"categories" bson:"categories"`
	ClientSide           string        `json:"client_side" bson:"client_side"`
	ServerSide           string        `json:"server_side" bson:"server_side"`
	Body                 string        `json:"body" bson:"body"`
	Status               string        `json:"status" bson:"status"`
	RequestedStatus      string        `json:"requested_status" bson:"requested_status"`
	AdditionalCategories []string      `json:"additional_categories" bson:"additional_categories"`
	IssuesURL            string        `json:"issues_url" bson:"issues_url"`
	SourceURL            string        `json:"source_url" bson:"source_url"`
	WikiURL              string        `json:"wiki_url" bson:"wiki_url"`
	DiscordURL           string        `json:"discord_url" bson:"discord_url"`
	DonationURLs         []DonationURL `json:"donation_urls" bson:"donation_urls"`
	ProjectType          string        `json:"project_type" bson:"project_type"`
	Downloads            int64         `json:"downloads" bson:"downloads"`
	IconURL              string        `json:"icon_url" bson:"icon_url"`
	Color                *int          `json:"color" bson:"color"`
	ThreadID             string        `json:"thread_id" bson:"thread_id"`
	MonetizationStatus   string        `json:"monetization_status" bson:"monetization_status"`
	Team                 string        `json:"team" bson:"team"`
	BodyURL              string        `json:"body_url" bson:"body_url"`
	Published            *time.Time    `json:"published" bson:"published"`
	Updated              *time.Time    `json:"updated" bson:"updated"`
	Approved             *time.Time    `json:"approved" bson:"approved"`
	Queued               *time.Time    `json:"queued" bson:"queued"`
	Followers            int           `json:"followers" bson:"followers"`
	License              *License      `json:"license" bson:"license"`
	Versions             []string      `json:"versions" bson:"versions"`
	GameVersions         []string      `json:"game_versions" bson:"game_versions"`
	Loaders              []string      `json:"loaders" bson:"loaders"`
	Gallery              []GalleryItem `json:"gallery" bson:"gallery"`

	store.Synced `bson:",inline"`
}

func (p *Project) EntityID() any      { return p.ID }
func (p *Project) Collection() string { return ProjectsCollection }

type VersionDependency struct {
	VersionID      string `json:"version_id" bson:"version_id"`
	ProjectID      string `json:"project_id" bson:"project_id"`
	FileName       string `json:"file_name" bson:"file_name"`
	DependencyType string `json:"dependency_type" bson:"dependency_type"`
}

// Hashes is the composite file key: every Modrinth file is identified by its
// sha512/sha1 pair.
type Hashes struct {
	SHA512 string `json:"sha512" bson:"sha512"`
	SHA1   string `json:"sha1" bson:"sha1"`
}

// FileInfo is a version's file as embedded in the version document.
type FileInfo struct {
	Hashes   Hashes `json:"hashes" bson:"hashes"`
	URL      string `json:"url" bson:"url"`
	Filename string `json:"filename" bson:"filename"`
	Primary  bool   `json:"primary" bson:"primary"`
	Size     int64  `json:"size" bson:"size"`
	FileType string `json:"file_type" bson:"file_type"`
}

// File is a standalone stored file record in modrinth_files, keyed by the
// hash pair and back-referencing its version and project.
type File struct {
	Hashes   Hashes `json:"hashes" bson:"_id"`
	URL      string `json:"url" bson:"url"`
	Filename string `json:"filename" bson:"filename"`
	Primary  bool   `json:"primary" bson:"primary"`
	Size     int64  `json:"size" bson:"size"`
	FileType string `json:"file_type" bson:"file_type"`

	VersionID string `json:"version_id" bson:"version_id"`
	ProjectID string `json:"project_id" bson:"project_id"`

	store.Synced `bson:",inline"`
}

func (f *File) EntityID() any      { return f.Hashes }
func (f *File) Collection() string { return FilesCollection }

// Version is one release of a Project. It doubles as the stored document in
// modrinth_versions, keyed by the version id.
type Version struct {
	ID              string              `json:"id" bson:"_id"`
	ProjectID       string              `json:"project_id" bson:"project_id"`
	Name            string              `json:"name" bson:"name"`
	VersionNumber   string              `json:"version_number" bson:"version_number"`
	Changelog       string              `json:"changelog" bson:"changelog"`
	Dependencies    []VersionDependency `json:"dependencies" bson:"dependencies"`
	GameVersions    []string            `json:"game_versions" bson:"game_versions"`
	VersionType     string              `json:"version_type" bson:"version_type"`
	Loaders         []string            `json:"loaders" bson:"loaders"`
	Featured        *bool               `json:"featured" bson:"featured"`
	Status          string              `json:"status" bson:"status"`
	RequestedStatus string              `json:"requested_status" bson:"requested_status"`
	AuthorID        string              `json:"author_id" bson:"author_id"`
	DatePublished   *time.Time          `json:"date_published" bson:"date_published"`
	Downloads       int64               `json:"downloads" bson:"downloads"`
	ChangelogURL    string              `json:"changelog_url" bson:"changelog_url"`
	Files           []FileInfo          `json:"files" bson:"files"`

	store.Synced `bson:",inline"`
}

func (v *Version) EntityID() any      { return v.ID }
func (v *Version) Collection() string { return VersionsCollection }

// Category is one entry of the category tag enumeration.
type Category struct {
	Icon        string `json:"icon" bson:"icon"`
	Name        string `json:"name" bson:"name"`
	ProjectType string `json:"project_type" bson:"project_type"`
	Header      string `json:"header" bson:"header"`

	store.Synced `bson:",inline"`
}

func (c *Category) EntityID() any      { return c.Name + "/" + c.ProjectType }
func (c *Category) Collection() string { return CategoriesCollection }

// Loader is one entry of the loader tag enumeration.
type Loader struct {
	Icon                  string   `json:"icon" bson:"icon"`
	Name                  string   `json:"name" bson:"name"`
	SupportedProjectTypes []string `json:"supported_project_types" bson:"supported_project_types"`

	store.Synced `bson:",inline"`
}

func (l *Loader) EntityID() any      { return l.Name }
func (l *Loader) Collection() string { return LoadersCollection }

// GameVersion is one entry of the game version tag enumeration.
type GameVersion struct {
	Version     string     `json:"version" bson:"version"`
	VersionType string     `json:"version_type" bson:"version_type"`
	Date        *time.Time `json:"date" bson:"date"`
	Major       bool       `json:"major" bson:"major"`

	store.Synced `bson:",inline"`
}

func (g *GameVersion) EntityID() any      { return g.Version }
func (g *GameVersion) Collection() string { return GameVersionsCollection }

// SearchHit is one search result entry.
type SearchHit struct {
	ProjectID   string `json:"project_id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	ProjectType string `json:"project_type"`
}

// SearchResult is one page of search hits.
type SearchResult struct {
	Hits      []SearchHit `json:"hits"`
	Offset    int         `json:"offset"`
	Limit     int         `json:"limit"`
	TotalHits int         `json:"total_hits"`
}
