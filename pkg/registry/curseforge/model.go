// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package curseforge

import (
	"time"

	"github.com/mcmod-info-mirror/mcim-sync/internal/store"
)

// Collection names for stored CurseForge entities.
const (
	ModsCollection         = "curseforge_mods"
	FilesCollection        = "curseforge_files"
	FingerprintsCollection = "curseforge_fingerprints"
	CategoriesCollection   = "curseforge_categories"
)

// GameIDMinecraft is the only game this mirror carries.
const GameIDMinecraft = 432

// MinModID rejects legacy/other-game mod ids at every entry point.
const MinModID = 30000

// Class ids grouping Minecraft projects on CurseForge.
const (
	ClassMods          = 6
	ClassModpacks      = 4471
	ClassResourcePacks = 12
	ClassWorlds        = 17
	ClassCustomization = 4546
	ClassAddons        = 4559
	ClassShaders       = 6552
	ClassDataPacks     = 6945
)

type Links struct {
	WebsiteURL string `json:"websiteUrl" bson:"websiteUrl"`
	WikiURL    string `json:"wikiUrl" bson:"wikiUrl"`
	IssuesURL  string `json:"issuesUrl" bson:"issuesUrl"`
	SourceURL  string `json:"sourceUrl" bson:"sourceUrl"`
}

type Author struct {
	ID   int    `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
	URL  string `json:"url" bson:"url"`
}

type Logo struct {
	ID           int    `json:"id" bson:"id"`
	ModID        int    `json:"modId" bson:"modId"`
	Title        string `json:"title" bson:"title"`
	Description  string `json:"description" bson:"description"`
	ThumbnailURL string `json:"thumbnailUrl" bson:"thumbnailUrl"`
	URL          string `json:"url" bson:"url"`
}

type CategoryInfo struct {
	ID               int        `json:"id" bson:"id"`
	GameID           int        `json:"gameId" bson:"gameId"`
	Name             string     `json:"name" bson:"name"`
	Slug             string     `json:"slug" bson:"slug"`
	URL              string     `json:"url" bson:"url"`
	IconURL          string     `json:"iconUrl" bson:"iconUrl"`
	DateModified     *time.Time `json:"dateModified" bson:"dateModified"`
	IsClass          *bool      `json:"isClass" bson:"isClass"`
	ClassID          *int       `json:"classId" bson:"classId"`
	ParentCategoryID *int       `json:"parentCategoryId" bson:"parentCategoryId"`
	DisplayIndex     *int       `json:"displayIndex" bson:"displayIndex"`
}

type Hash struct {
	Value string `json:"value" bson:"value"`
	Algo  int    `json:"algo" bson:"algo"`
}

type SortableGameVersion struct {
	GameVersionName        string     `json:"gameVersionName" bson:"gameVersionName"`
	GameVersionPadded      string     `json:"gameVersionPadded" bson:"gameVersionPadded"`
	GameVersion            string     `json:"gameVersion" bson:"gameVersion"`
	GameVersionReleaseDate *time.Time `json:"gameVersionReleaseDate" bson:"gameVersionReleaseDate"`
	GameVersionTypeID      *int       `json:"gameVersionTypeId" bson:"gameVersionTypeId"`
}

type Dependency struct {
	ModID        int `json:"modId" bson:"modId"`
	RelationType int `json:"relationType" bson:"relationType"`
}

type Module struct {
	Name        string `json:"name" bson:"name"`
	Fingerprint int64  `json:"fingerprint" bson:"fingerprint"`
}

// File is one release artifact of a Mod. It doubles as the stored document in
// curseforge_files, keyed by the file id.
type File struct {
	ID                   int                   `json:"id" bson:"_id"`
	GameID               int                   `json:"gameId" bson:"gameId"`
	ModID                int                   `json:"modId" bson:"modId"`
	IsAvailable          *bool                 `json:"isAvailable" bson:"isAvailable"`
	DisplayName          string                `json:"displayName" bson:"displayName"`
	FileName             string                `json:"fileName" bson:"fileName"`
	ReleaseType          *int                  `json:"releaseType" bson:"releaseType"`
	FileStatus           *int                  `json:"fileStatus" bson:"fileStatus"`
	Hashes               []Hash                `json:"hashes" bson:"hashes"`
	FileDate             *time.Time            `json:"fileDate" bson:"fileDate"`
	FileLength           int64                 `json:"fileLength" bson:"fileLength"`
	DownloadCount        int64                 `json:"downloadCount" bson:"downloadCount"`
	FileSizeOnDisk       *int64                `json:"fileSizeOnDisk" bson:"fileSizeOnDisk"`
	DownloadURL          string                `json:"downloadUrl" bson:"downloadUrl"`
	GameVersions         []string              `json:"gameVersions" bson:"gameVersions"`
	SortableGameVersions []SortableGameVersion `json:"sortableGameVersions" bson:"sortableGameVersions"`
	Dependencies         []Dependency          `json:"dependencies" bson:"dependencies"`
	ExposeAsAlternative  *bool                 `json:"exposeAsAlternative" bson:"exposeAsAlternative"`
	ParentProjectFileID  *int                  `json:"parentProjectFileId" bson:"parentProjectFileId"`
	AlternateFileID      *int                  `json:"alternateFileId" bson:"alternateFileId"`
	IsServerPack         *bool                 `json:"isServerPack" bson:"isServerPack"`
	ServerPackFileID     *int                  `json:"serverPackFileId" bson:"serverPackFileId"`
	IsEarlyAccessContent *bool                 `json:"isEarlyAccessContent" bson:"isEarlyAccessContent"`
	EarlyAccessEndDate   *time.Time            `json:"earlyAccessEndDate" bson:"earlyAccessEndDate"`
	FileFingerprint      int64                 `json:"fileFingerprint" bson:"fileFingerprint"`
	Modules              []Module              `json:"modules" bson:"modules"`

	store.Synced `bson:",inline"`
}

func (f *File) EntityID() any      { return f.ID }
func (f *File) Collection() string { return FilesCollection }

type FileIndex struct {
	GameVersion       string `json:"gameVersion" bson:"gameVersion"`
	FileID            int    `json:"fileId" bson:"fileId"`
	Filename          string `json:"filename" bson:"filename"`
	ReleaseType       *int   `json:"releaseType" bson:"releaseType"`
	GameVersionTypeID *int   `json:"gameVersionTypeId" bson:"gameVersionTypeId"`
	ModLoader         *int   `json:"modLoader" bson:"modLoader"`
}

type Screenshot struct {
	ID           int    `json:"id" bson:"id"`
	ModID        int    `json:"modId" bson:"modId"`
	Title        string `json:"title" bson:"title"`
	Description  string `json:"description" bson:"description"`
	ThumbnailURL string `json:"thumbnailUrl" bson:"thumbnailUrl"`
	URL          string `json:"url" bson:"url"`
}

// Mod is a CurseForge project. It doubles as the stored document in
// curseforge_mods, keyed by the mod id.
type Mod struct {
	ID                   int            `json:"id" bson:"_id"`
	GameID               int            `json:"gameId" bson:"gameId"`
	Name                 string         `json:"name" bson:"name"`
	Slug                 string         `json:"slug" bson:"slug"`
	Links                *Links         `json:"links" bson:"links"`
	Summary              string         `json:"summary" bson:"summary"`
	Status               *int           `json:"status" bson:"status"`
	DownloadCount        int64          `json:"downloadCount" bson:"downloadCount"`
	IsFeatured           *bool          `json:"isFeatured" bson:"isFeatured"`
	PrimaryCategoryID    *int           `json:"primaryCategoryId" bson:"primaryCategoryId"`
	Categories           []CategoryInfo `json:"categories" bson:"categories"`
	ClassID              *int           `json:"classId" bson:"classId"`
	Authors              []Author       `json:"authors" bson:"authors"`
	Logo                 *Logo          `json:"logo" bson:"logo"`
	Screenshots          []Screenshot   `json:"screenshots" bson:"screenshots"`
	MainFileID           int            `json:"mainFileId" bson:"mainFileId"`
	LatestFiles          []File         `json:"latestFiles" bson:"latestFiles"`
	LatestFilesIndexes   []FileIndex    `json:"latestFilesIndexes" bson:"latestFilesIndexes"`
	DateCreated          *time.Time     `json:"dateCreated" bson:"dateCreated"`
	DateModified         *time.Time     `json:"dateModified" bson:"dateModified"`
	DateReleased         *time.Time     `json:"dateReleased" bson:"dateReleased"`
	AllowModDistribution *bool          `json:"allowModDistribution" bson:"allowModDistribution"`
	GamePopularityRank   *int           `json:"gamePopularityRank" bson:"gamePopularityRank"`
	IsAvailable          *bool          `json:"isAvailable" bson:"isAvailable"`
	ThumbsUpCount        *int           `json:"thumbsUpCount" bson:"thumbsUpCount"`
	Rating               *float64       `json:"rating" bson:"rating"`

	store.Synced `bson:",inline"`
}

func (m *Mod) EntityID() any      { return m.ID }
func (m *Mod) Collection() string { return ModsCollection }

// Fingerprint maps a file's fingerprint to the file body for reverse lookup.
// Stored in curseforge_fingerprints, keyed by the fingerprint value.
type Fingerprint struct {
	ID          int64  `json:"id" bson:"_id"`
	File        File   `json:"file" bson:"file"`
	LatestFiles []File `json:"latestFiles" bson:"latestFiles"`

	store.Synced `bson:",inline"`
}

func (f *Fingerprint) EntityID() any      { return f.ID }
func (f *Fingerprint) Collection() string { return FingerprintsCollection }

// Category is one entry of the category enumeration.
type Category struct {
	ID               int        `json:"id" bson:"_id"`
	GameID           int        `json:"gameId" bson:"gameId"`
	Name             string     `json:"name" bson:"name"`
	Slug             string     `json:"slug" bson:"slug"`
	URL              string     `json:"url" bson:"url"`
	IconURL          string     `json:"iconUrl" bson:"iconUrl"`
	DateModified     *time.Time `json:"dateModified" bson:"dateModified"`
	IsClass          *bool      `json:"isClass" bson:"isClass"`
	ClassID          *int       `json:"classId" bson:"classId"`
	ParentCategoryID *int       `json:"parentCategoryId" bson:"parentCategoryId"`
	DisplayIndex     *int       `json:"displayIndex" bson:"displayIndex"`

	store.Synced `bson:",inline"`
}

func (c *Category) EntityID() any      { return c.ID }
func (c *Category) Collection() string { return CategoriesCollection }

// Pagination is CurseForge's opaque page descriptor.
type Pagination struct {
	Index       int `json:"index"`
	PageSize    int `json:"pageSize"`
	ResultCount int `json:"resultCount"`
	TotalCount  int `json:"totalCount"`
}

// FingerprintMatch pairs a fingerprint with the file it identifies.
type FingerprintMatch struct {
	ID          int64  `json:"id"`
	File        File   `json:"file"`
	LatestFiles []File `json:"latestFiles"`
}

// FingerprintsResult is the body of a fingerprint bulk lookup.
type FingerprintsResult struct {
	IsCacheBuilt             bool               `json:"isCacheBuilt"`
	ExactMatches             []FingerprintMatch `json:"exactMatches"`
	ExactFingerprints        []int64            `json:"exactFingerprints"`
	UnmatchedFingerprints    []int64            `json:"unmatchedFingerprints"`
	PartialMatchFingerprints map[string][]int64 `json:"partialMatchFingerprints"`
}
