package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/exmod-team/exiled-installer/internal/messages"
)

// FieldType classifies the kind of value a config field accepts.
type FieldType string

const (
	// FieldBool accepts true or false.
	FieldBool FieldType = "bool"
	// FieldFreetext accepts arbitrary string input.
	FieldFreetext FieldType = "freetext"
	// FieldPositiveInt accepts a positive integer.
	FieldPositiveInt FieldType = "positive_int"
)

// FieldDef describes a single config key and the kind of value it takes.
type FieldDef struct {
	Key         string
	Type        FieldType
	Description string
}

// fields is the canonical ordered registry of settable config keys, in file order.
var fields = []FieldDef{
	{Key: "feed.owner", Type: FieldFreetext, Description: messages.FieldFeedOwner},
	{Key: "feed.repository", Type: FieldFreetext, Description: messages.FieldFeedRepository},
	{Key: "feed.asset", Type: FieldFreetext, Description: messages.FieldFeedAsset},
	{Key: "feed.minimum_version", Type: FieldFreetext, Description: messages.FieldFeedMinimumVersion},
	{Key: "install.appdata", Type: FieldFreetext, Description: messages.FieldInstallAppData},
	{Key: "install.exiled", Type: FieldFreetext, Description: messages.FieldInstallExiled},
	{Key: "install.pre_releases", Type: FieldBool, Description: messages.FieldInstallPreReleases},
	{Key: "install.target_version", Type: FieldFreetext, Description: messages.FieldInstallTargetVersion},
	{Key: "install.target_port", Type: FieldFreetext, Description: messages.FieldInstallTargetPort},
	{Key: "install.markup_file", Type: FieldFreetext, Description: messages.FieldInstallMarkupFile},
	{Key: "download.timeout_seconds", Type: FieldPositiveInt, Description: messages.FieldDownloadTimeout},
	{Key: "download.max_bytes", Type: FieldPositiveInt, Description: messages.FieldDownloadMaxBytes},
	{Key: "download.cache", Type: FieldBool, Description: messages.FieldDownloadCache},
}

// fieldIndex provides O(1) lookup by key.
var fieldIndex = buildFieldIndex()

func buildFieldIndex() map[string]int {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f.Key] = i
	}
	return idx
}

// LookupField returns the field definition for the given config key.
// Returns false when the key is not in the catalog.
func LookupField(key string) (FieldDef, bool) {
	i, ok := fieldIndex[key]
	if !ok {
		return FieldDef{}, false
	}
	return fields[i], true
}

// Fields returns a copy of all registered field definitions in catalog order.
func Fields() []FieldDef {
	out := make([]FieldDef, len(fields))
	copy(out, fields)
	return out
}

// Parse converts raw command-line text into the TOML value for this field.
func (f FieldDef) Parse(raw string) (any, error) {
	switch f.Type {
	case FieldBool:
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf(messages.ConfigInvalidBoolFmt, f.Key, raw)
		}
		return v, nil
	case FieldPositiveInt:
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf(messages.ConfigInvalidPositiveIntFmt, f.Key, raw)
		}
		return v, nil
	default:
		return raw, nil
	}
}
