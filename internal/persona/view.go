package persona

import "time"

// ProfileView is the fully resolved picture of a profile's active snapshot:
// keyword ids replaced with names, experience records loaded and sorted.
// Assembling it is the caller's job; this package only renders.
type ProfileView struct {
	DisplayName   string
	Positions     []string
	Skills        []string
	Personalities []string
	Experiences   []ExperienceEntry
}

// ExperienceEntry is one work-history record, ordered by Sequence.
type ExperienceEntry struct {
	CompanyName   string
	PositionTitle string
	StartDate     time.Time
	EndDate       *time.Time
	Description   string
	Sequence      int
}

// SourceKind distinguishes uploaded files from resolved external links.
type SourceKind string

const (
	SourceFile SourceKind = "file"
	SourceLink SourceKind = "link"
)

// ResolvedSource is an attached material with any network resolution already
// done. File sources carry their URL in Content; link sources carry the
// resolved text (or a caller-chosen fallback line when resolution failed).
type ResolvedSource struct {
	Label   string
	Kind    SourceKind
	Content string
}
