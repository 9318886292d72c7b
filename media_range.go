/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package xaction

import (
	"sort"
	"strconv"
	"strings"
)

const (
	Wildcard          = "*"
	UniversalWildcard = "*/*"
)

// MediaRange is a single entry of an Accept-family header. For Accept the Type and Subtype halves are populated,
// for Accept-Language and Accept-Encoding only Type is populated with the whole token.
type MediaRange struct {
	Type    string
	Subtype string
	Params  map[string]string

	// Quality is always within [0,1]. Missing or malformed q values are treated as 1.
	Quality float64

	// Specificity is 0 for */*, 1 for type/*, 2 for type/subtype plus one for every non-q parameter.
	Specificity int

	// Index is the position of the entry among the parseable entries of the header.
	Index int
}

// String returns the range as it would appear in a header, without parameters.
func (mediaRange MediaRange) String() string {
	if mediaRange.Subtype == "" {
		return mediaRange.Type
	}
	return mediaRange.Type + "/" + mediaRange.Subtype
}

// IsWildcard returns true for */* (or a bare * token).
func (mediaRange MediaRange) IsWildcard() bool {
	return mediaRange.Type == Wildcard && (mediaRange.Subtype == Wildcard || mediaRange.Subtype == "")
}

// IsTypeWildcard returns true for ranges of the form type/*.
func (mediaRange MediaRange) IsTypeWildcard() bool {
	return mediaRange.Type != Wildcard && mediaRange.Subtype == Wildcard
}

// Key returns the flattened form used for set intersection: type/subtype, type/* or */*.
func (mediaRange MediaRange) Key() string {
	return mediaRange.String()
}

// ParseMediaRanges parses an Accept header. Parsing is permissive: entries that cannot be understood are
// skipped, never rejected, and a q value that cannot be read defaults to 1. The result is ordered by quality
// descending with ties kept in header order. An empty header yields an empty result which callers must treat as
// "no restriction".
func ParseMediaRanges(header string) []MediaRange {
	return parseRanges(header, true)
}

// ParseTokenRanges parses Accept-Language and Accept-Encoding style headers where every entry is a single token.
func ParseTokenRanges(header string) []MediaRange {
	return parseRanges(header, false)
}

func parseRanges(header string, mediaTypes bool) []MediaRange {
	if strings.TrimSpace(header) == "" {
		return nil
	}

	var ranges []MediaRange

	for _, part := range strings.Split(header, ",") {
		mediaRange, ok := parseRange(part, mediaTypes)
		if !ok {
			continue
		}
		mediaRange.Index = len(ranges)
		ranges = append(ranges, mediaRange)
	}

	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].Quality > ranges[j].Quality
	})

	return ranges
}

func parseRange(part string, mediaTypes bool) (MediaRange, bool) {
	mediaRange := MediaRange{
		Quality: 1,
	}

	segments := strings.Split(part, ";")
	value := strings.ToLower(strings.TrimSpace(segments[0]))

	if value == "" {
		return mediaRange, false
	}

	if mediaTypes {
		if value == Wildcard {
			value = UniversalWildcard
		}

		slash := strings.IndexByte(value, '/')
		if slash <= 0 || slash == len(value)-1 {
			return mediaRange, false
		}

		mediaRange.Type = strings.TrimSpace(value[:slash])
		mediaRange.Subtype = strings.TrimSpace(value[slash+1:])

		switch {
		case mediaRange.Type == Wildcard && mediaRange.Subtype != Wildcard:
			// */json is not a valid range
			return mediaRange, false
		case mediaRange.Type == Wildcard:
			mediaRange.Specificity = 0
		case mediaRange.Subtype == Wildcard:
			mediaRange.Specificity = 1
		default:
			mediaRange.Specificity = 2
		}
	} else {
		mediaRange.Type = value
		if value != Wildcard {
			mediaRange.Specificity = 1
		}
	}

	for _, param := range segments[1:] {
		key, val, found := strings.Cut(param, "=")
		if !found {
			continue
		}

		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.Trim(strings.TrimSpace(val), `"`)

		if key == "" {
			continue
		}

		if key == "q" {
			mediaRange.Quality = parseQuality(val)
			continue
		}

		if mediaRange.Params == nil {
			mediaRange.Params = map[string]string{}
		}
		mediaRange.Params[key] = val
		mediaRange.Specificity++
	}

	return mediaRange, true
}

// parseQuality never fails, anything that is not a number within [0,1] is read as 1.
func parseQuality(value string) float64 {
	quality, err := strconv.ParseFloat(value, 64)
	if err != nil || quality < 0 || quality > 1 {
		return 1
	}
	return quality
}

// mediaTypeOf strips parameters and lower-cases a declared content type, e.g. "Text/HTML; charset=utf-8"
// becomes "text/html".
func mediaTypeOf(contentType string) string {
	if semicolon := strings.IndexByte(contentType, ';'); semicolon >= 0 {
		contentType = contentType[:semicolon]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// typeWildcardOf returns the type/* form of a media type.
func typeWildcardOf(mediaType string) string {
	if slash := strings.IndexByte(mediaType, '/'); slash >= 0 {
		return mediaType[:slash] + "/*"
	}
	return mediaType + "/*"
}
