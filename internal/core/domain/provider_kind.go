package domain

// ProviderKind identifies a supported content provider.
// The set is closed: unknown kinds are rejected with ErrUnsupportedType
// rather than falling back to a default.
type ProviderKind string

const (
	// ProviderRSS fetches entries from an RSS or Atom feed.
	ProviderRSS ProviderKind = "rss"
	// ProviderHackerNews fetches stories from the Hacker News API.
	ProviderHackerNews ProviderKind = "hackernews"
	// ProviderSubreddit fetches posts from a subreddit listing.
	ProviderSubreddit ProviderKind = "subreddit"
)

// ProviderKinds lists every supported provider kind.
func ProviderKinds() []ProviderKind {
	return []ProviderKind{ProviderRSS, ProviderHackerNews, ProviderSubreddit}
}

// Valid reports whether k names a supported provider.
func (k ProviderKind) Valid() bool {
	switch k {
	case ProviderRSS, ProviderHackerNews, ProviderSubreddit:
		return true
	}
	return false
}

// ConfigKey describes a configuration field for a provider.
type ConfigKey struct {
	// Key is the configuration key name.
	Key string
	// Label is the human-readable label.
	Label string
	// Description explains what this field is for.
	Description string
	// Required marks fields that must be set before fetching works.
	Required bool
}

// ProviderType describes a registered provider for discovery surfaces.
type ProviderType struct {
	// Kind is the unique provider identifier.
	Kind ProviderKind
	// Name is the human-readable display name.
	Name string
	// Description provides a brief explanation of the provider.
	Description string
	// ConfigKeys lists the configuration fields used by this provider.
	ConfigKeys []ConfigKey
}
