package stele

// RepositoryType is the custom.repository_type a data repo declares in
// targets/repositories.json (spec §3).
type RepositoryType string

const (
	RepositoryTypeHTML  RepositoryType = "html"
	RepositoryTypeRDF   RepositoryType = "rdf"
	RepositoryTypeXML   RepositoryType = "xml"
	RepositoryTypePDF   RepositoryType = "pdf"
	RepositoryTypeOther RepositoryType = "other"
)

// ServeMode is custom.serve: whether a repo is served at HEAD ("latest")
// or only ever through the historical rewriter ("historical").
type ServeMode string

const (
	ServeLatest     ServeMode = "latest"
	ServeHistorical ServeMode = "historical"
)

// Custom is the discriminated-but-not-sum-typed bundle of optional fields
// a RepositoryDecl carries (spec §9 design note: routes/scope/is_fallback
// co-exist, they are not mutually exclusive variants).
type Custom struct {
	RepositoryType              RepositoryType `json:"type"`
	Serve                       ServeMode      `json:"serve"`
	Scope                       string         `json:"serve-prefix,omitempty"`
	Routes                      []string       `json:"routes,omitempty"`
	IsFallback                  bool           `json:"is_fallback,omitempty"`
	AllowUnauthenticatedCommits bool           `json:"allow-unauthenticated-commits,omitempty"`
}

// RepositoryDecl is one entry of targets/repositories.json's repositories
// map.
type RepositoryDecl struct {
	Name   string `json:"name"`
	Custom Custom `json:"custom"`
}

// Repositories is the parsed shape of targets/repositories.json.
type Repositories struct {
	Scopes       []string                  `json:"scopes,omitempty"`
	Repositories map[string]RepositoryDecl `json:"repositories"`
}

// Dependency is one entry of targets/dependencies.json's dependencies map.
type Dependency struct {
	Branch                  string `json:"branch"`
	OutOfBandAuthentication string `json:"out-of-band-authentication"`
}

// Dependencies is the parsed shape of targets/dependencies.json.
type Dependencies struct {
	Dependencies map[string]Dependency `json:"dependencies"`
}

// PublicationMetadata is the parsed shape of a per-publication
// targets/<org>/<file>.json manifest.
type PublicationMetadata struct {
	Branch       string  `json:"branch"`
	Commit       string  `json:"commit"`
	BuildDate    *string `json:"build-date,omitempty"`
	CodifiedDate *string `json:"codified-date,omitempty"`
}
