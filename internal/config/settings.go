package config

// Settings represents the structure of the .fileingest settings file.
type Settings struct {
	// SearchQuery configures the search engine query module.
	SearchQuery SearchQuerySettings `yaml:"searchQuery,omitempty"`

	// HashLookup configures the hash lookup module.
	HashLookup HashLookupSettings `yaml:"hashLookup,omitempty"`

	// Email configures the email address module.
	Email EmailSettings `yaml:"email,omitempty"`

	// MaxFileSize overrides the content read limit when the flag is not set.
	MaxFileSize int64 `yaml:"maxFileSize,omitempty"`

	// Disabled lists module display names that must not run.
	Disabled []string `yaml:"disabled,omitempty"`

	// FileIngestPipeline optionally overrides the module order with a list of
	// module class identifiers.
	FileIngestPipeline []string `yaml:"fileIngestPipeline,omitempty"`
}

// SearchQuerySettings configures the search engine query module.
type SearchQuerySettings struct {
	// RulesFile is an XML file with search engine rules that replaces the
	// built-in rule set.
	RulesFile string `yaml:"rulesFile,omitempty"`
}

// HashLookupSettings configures the hash lookup module.
type HashLookupSettings struct {
	// SetName is the name reported for hits against the known-bad set.
	SetName string `yaml:"setName,omitempty"`

	// KnownBad lists MD5 or SHA-256 hex digests of known-bad files.
	KnownBad []string `yaml:"knownBad,omitempty"`

	// HashSetFiles lists text files with one MD5 or SHA-256 digest per line.
	HashSetFiles []string `yaml:"hashSetFiles,omitempty"`
}

// EmailSettings configures the email address module.
type EmailSettings struct {
	// FreeProviders extends the built-in list of free email providers.
	FreeProviders []string `yaml:"freeProviders,omitempty"`

	// IgnoreDomains lists domains whose addresses are not reported.
	IgnoreDomains []string `yaml:"ignoreDomains,omitempty"`
}

// DefaultHashSetName is used when the settings file names no hash set.
const DefaultHashSetName = "known-bad"

// NewSettings returns empty settings with defaults applied.
func NewSettings() *Settings {
	return &Settings{
		HashLookup: HashLookupSettings{SetName: DefaultHashSetName},
	}
}
