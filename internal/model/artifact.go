package model

import "time"

// ArtifactType identifies the kind of result a module posted.
type ArtifactType string

// Artifact types posted by the built-in modules.
const (
	// ArtifactWebSearchQuery is a search query recovered from a search engine URL.
	ArtifactWebSearchQuery ArtifactType = "web_search_query"
	// ArtifactHashSetHit marks a file whose hash is in the known-bad hash set.
	ArtifactHashSetHit ArtifactType = "hashset_hit"
	// ArtifactEXIFMetadata holds identifying metadata read from an image.
	ArtifactEXIFMetadata ArtifactType = "exif_metadata"
	// ArtifactEmailAddress is an email address found in file content.
	ArtifactEmailAddress ArtifactType = "email_address"
	// ArtifactEncryptionKey is private key or credential material found in content.
	ArtifactEncryptionKey ArtifactType = "encryption_key"
)

// AttributeType identifies the meaning of an artifact attribute value.
type AttributeType string

// Attribute types used by the built-in modules.
const (
	AttrDomain      AttributeType = "domain"
	AttrText        AttributeType = "text"
	AttrURL         AttributeType = "url"
	AttrProgName    AttributeType = "prog_name"
	AttrEngine      AttributeType = "engine"
	AttrEmail       AttributeType = "email"
	AttrHashMD5     AttributeType = "hash_md5"
	AttrHashSHA256  AttributeType = "hash_sha256"
	AttrSetName     AttributeType = "set_name"
	AttrDeviceMake  AttributeType = "device_make"
	AttrDeviceModel AttributeType = "device_model"
	AttrSerial      AttributeType = "serial_number"
	AttrSoftware    AttributeType = "software"
	AttrAuthor      AttributeType = "author"
	AttrDateTime    AttributeType = "datetime"
	AttrGeoLat      AttributeType = "geo_latitude"
	AttrGeoLong     AttributeType = "geo_longitude"
	AttrKeyType     AttributeType = "key_type"
	AttrDescription AttributeType = "description"
)

// Attribute is a single typed value attached to an artifact.
type Attribute struct {
	Type  AttributeType `json:"type"`
	Value string        `json:"value"`
}

// Artifact is a result posted by an analysis module about one file.
type Artifact struct {
	// ID is the case database identifier. Zero until persisted.
	ID int64 `json:"id"`

	// FileID is the identifier of the file the artifact was derived from.
	FileID int64 `json:"file_id"`

	// Type is the kind of artifact.
	Type ArtifactType `json:"type"`

	// Module is the display name of the module that posted the artifact.
	Module string `json:"module"`

	// Severity is the investigative weight of the artifact.
	Severity Severity `json:"severity"`

	// Attributes holds the typed values of the artifact, in posting order.
	Attributes []Attribute `json:"attributes"`

	// CreatedAt is when the artifact was posted.
	CreatedAt time.Time `json:"created_at"`
}

// NewArtifact creates an artifact for the given file with the default
// severity of its type.
func NewArtifact(fileID int64, artifactType ArtifactType, module string) *Artifact {
	return &Artifact{
		FileID:    fileID,
		Type:      artifactType,
		Module:    module,
		Severity:  GetArtifactInfo(artifactType).Severity,
		CreatedAt: time.Now(),
	}
}

// AddAttribute appends an attribute. Empty values are skipped.
func (a *Artifact) AddAttribute(attrType AttributeType, value string) {
	if value == "" {
		return
	}
	a.Attributes = append(a.Attributes, Attribute{Type: attrType, Value: value})
}

// Attribute returns the first value of the given attribute type.
func (a *Artifact) Attribute(attrType AttributeType) (string, bool) {
	for _, attr := range a.Attributes {
		if attr.Type == attrType {
			return attr.Value, true
		}
	}
	return "", false
}

// ArtifactInfo describes an artifact type for reports.
type ArtifactInfo struct {
	Severity    Severity
	Title       string
	Description string
}

// artifactInfoMapping maps artifact types to their report metadata.
// This centralized mapping keeps titles and default weights consistent
// between modules, the case database and the report writers.
var artifactInfoMapping = map[ArtifactType]ArtifactInfo{
	ArtifactWebSearchQuery: {
		Severity:    SeverityMedium,
		Title:       "Web Search Query",
		Description: "A search query recovered from a search engine URL found in file content.",
	},
	ArtifactHashSetHit: {
		Severity:    SeverityHigh,
		Title:       "Known Hash Set Hit",
		Description: "The file hash matches an entry of the configured known-bad hash set.",
	},
	ArtifactEXIFMetadata: {
		Severity:    SeverityLow,
		Title:       "Image EXIF Metadata",
		Description: "Identifying metadata such as device, author, timestamps or GPS position stored in an image.",
	},
	ArtifactEmailAddress: {
		Severity:    SeverityMedium,
		Title:       "Email Address",
		Description: "An email address found in file content.",
	},
	ArtifactEncryptionKey: {
		Severity:    SeverityCritical,
		Title:       "Key Material",
		Description: "Private key or credential material found in file content.",
	},
}

// GetArtifactInfo returns the report metadata for an artifact type.
// Unknown types yield a generic entry with SeverityInfo.
func GetArtifactInfo(artifactType ArtifactType) ArtifactInfo {
	if info, ok := artifactInfoMapping[artifactType]; ok {
		return info
	}
	return ArtifactInfo{
		Severity:    SeverityInfo,
		Title:       string(artifactType),
		Description: "Artifact posted by a third-party module.",
	}
}
