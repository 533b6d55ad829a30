// Package exifmeta extracts identifying EXIF metadata from images.
//
// Images can carry GPS coordinates, camera serial numbers, the software used
// to edit them, author names and timestamps. The module collects these tags
// into one artifact per image.
package exifmeta

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/nao1215/fileingest/internal/blackboard"
	"github.com/nao1215/fileingest/internal/model"
	"github.com/nao1215/fileingest/internal/pipeline"
)

// Name is the display name of the module.
const Name = "EXIF Metadata"

// imageNamePattern matches the image formats that carry EXIF data.
var imageNamePattern = regexp.MustCompile(`(?i)\.(jpe?g|tiff?|heic)$`)

// Options configures the module.
type Options struct {
	// Blackboard receives the posted artifacts.
	Blackboard blackboard.Blackboard

	// Logger is the base logger. Nil discards logs.
	Logger *slog.Logger

	// MaxFileSize limits how much of each image is read.
	MaxFileSize int64

	// Disabled stops the template from producing modules.
	Disabled bool
}

// NewTemplate returns the template that creates EXIF modules.
func NewTemplate(opts Options) *pipeline.FuncTemplate {
	return &pipeline.FuncTemplate{
		Name:     Name,
		Disabled: opts.Disabled,
		Factory:  func() pipeline.FileModule { return New(opts) },
	}
}

// Module reads EXIF tags from JPEG, TIFF and HEIC files.
type Module struct {
	opts     Options
	logger   *slog.Logger
	images   int
	withEXIF int
}

// New creates a module instance.
func New(opts Options) *Module {
	return &Module{opts: opts}
}

// StartUp implements pipeline.FileModule.
func (m *Module) StartUp(jc *pipeline.JobContext) error {
	if m.opts.Blackboard == nil {
		return blackboard.ErrNotConfigured
	}
	m.logger = m.opts.Logger
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	m.logger = m.logger.With("module", Name, "job", jc.JobID())
	return nil
}

// Process implements pipeline.FileModule.
// Images without EXIF data are not errors.
func (m *Module) Process(ctx context.Context, file *model.File) (pipeline.ProcessResult, error) {
	if !imageNamePattern.MatchString(file.Name) {
		return pipeline.ResultOK, nil
	}
	m.images++

	data, err := file.ReadContent(m.opts.MaxFileSize)
	if err != nil {
		return pipeline.ResultError, err
	}

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return pipeline.ResultOK, nil
	}
	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		m.logger.Debug("unreadable EXIF block", "file", file.UniquePath(), "error", err)
		return pipeline.ResultOK, nil
	}

	a := buildArtifact(file.ID, entries)
	if a == nil {
		return pipeline.ResultOK, nil
	}
	m.withEXIF++
	if err := m.opts.Blackboard.PostArtifact(ctx, a); err != nil {
		return pipeline.ResultError, fmt.Errorf("failed to post EXIF artifact: %w", err)
	}
	return pipeline.ResultOK, nil
}

// ShutDown implements pipeline.FileModule.
func (m *Module) ShutDown(cancelled bool) error {
	m.logger.Debug("EXIF scan finished", "images", m.images, "with_metadata", m.withEXIF, "cancelled", cancelled)
	return nil
}

// tagRule maps an EXIF tag to the attribute it fills and its weight.
type tagRule struct {
	attr     model.AttributeType
	severity model.Severity
}

// tagRules lists the tags worth reporting.
//
// Design decision: GPS position is rated CRITICAL because it pins content to
// a place. Serial numbers and author fields identify a device or person
// (HIGH), camera make and model narrow the device down (MEDIUM), while
// software and timestamps only add context (LOW).
var tagRules = map[string]tagRule{
	"GPSLatitude":        {model.AttrGeoLat, model.SeverityCritical},
	"GPSLongitude":       {model.AttrGeoLong, model.SeverityCritical},
	"Make":               {model.AttrDeviceMake, model.SeverityMedium},
	"Model":              {model.AttrDeviceModel, model.SeverityMedium},
	"HostComputer":       {model.AttrDeviceModel, model.SeverityMedium},
	"SerialNumber":       {model.AttrSerial, model.SeverityHigh},
	"CameraSerialNumber": {model.AttrSerial, model.SeverityHigh},
	"BodySerialNumber":   {model.AttrSerial, model.SeverityHigh},
	"LensSerialNumber":   {model.AttrSerial, model.SeverityHigh},
	"Software":           {model.AttrSoftware, model.SeverityLow},
	"ProcessingSoftware": {model.AttrSoftware, model.SeverityLow},
	"Artist":             {model.AttrAuthor, model.SeverityHigh},
	"Author":             {model.AttrAuthor, model.SeverityHigh},
	"XPAuthor":           {model.AttrAuthor, model.SeverityHigh},
	"Copyright":          {model.AttrAuthor, model.SeverityHigh},
	"DateTimeOriginal":   {model.AttrDateTime, model.SeverityLow},
	"DateTimeDigitized":  {model.AttrDateTime, model.SeverityLow},
	"DateTime":           {model.AttrDateTime, model.SeverityLow},
}

// refTags holds the hemisphere reference of each GPS coordinate tag.
var refTags = map[string]string{
	"GPSLatitude":  "GPSLatitudeRef",
	"GPSLongitude": "GPSLongitudeRef",
}

// buildArtifact turns EXIF entries into an artifact. It returns nil when
// none of the entries is worth reporting. The artifact severity is the
// highest severity of its tags.
func buildArtifact(fileID int64, entries []exif.ExifTag) *model.Artifact {
	refs := make(map[string]string)
	for _, e := range entries {
		if e.TagName == "GPSLatitudeRef" || e.TagName == "GPSLongitudeRef" {
			refs[e.TagName] = e.Formatted
		}
	}

	a := model.NewArtifact(fileID, model.ArtifactEXIFMetadata, Name)
	a.Severity = model.SeverityInfo
	seen := make(map[string]bool)
	for _, e := range entries {
		rule, ok := tagRules[e.TagName]
		if !ok || e.Formatted == "" || seen[e.TagName] {
			continue
		}
		seen[e.TagName] = true

		value := e.Formatted
		if ref := refs[refTags[e.TagName]]; ref != "" {
			value += " " + ref
		}
		a.AddAttribute(rule.attr, value)
		if rule.severity > a.Severity {
			a.Severity = rule.severity
		}
	}
	if len(a.Attributes) == 0 {
		return nil
	}
	return a
}

var _ pipeline.FileModule = (*Module)(nil)
