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
	"testing"

	"github.com/stretchr/testify/require"
)

func keysOf(ranges []MediaRange) []string {
	var keys []string
	for _, mediaRange := range ranges {
		keys = append(keys, mediaRange.Key())
	}
	return keys
}

func TestParseMediaRanges(t *testing.T) {

	t.Run("an empty header yields no ranges", func(t *testing.T) {
		req := require.New(t)
		req.Empty(ParseMediaRanges(""))
		req.Empty(ParseMediaRanges("   "))
	})

	t.Run("ranges are ordered by quality regardless of header order", func(t *testing.T) {
		req := require.New(t)
		ranges := ParseMediaRanges("text/html;q=0.5, application/json;q=0.9")
		req.Equal([]string{"application/json", "text/html"}, keysOf(ranges))
		req.Equal(0.9, ranges[0].Quality)
		req.Equal(1, ranges[0].Index)
	})

	t.Run("equal qualities keep header order", func(t *testing.T) {
		req := require.New(t)
		ranges := ParseMediaRanges("text/html, application/json, text/plain;q=1.0")
		req.Equal([]string{"text/html", "application/json", "text/plain"}, keysOf(ranges))
	})

	t.Run("specificity does not reorder ranges of equal quality", func(t *testing.T) {
		req := require.New(t)
		ranges := ParseMediaRanges("*/*, text/*, text/html;level=1")
		req.Equal([]string{"*/*", "text/*", "text/html"}, keysOf(ranges))
		req.Equal(0, ranges[0].Specificity)
		req.Equal(1, ranges[1].Specificity)
		req.Equal(3, ranges[2].Specificity)
		req.Equal("1", ranges[2].Params["level"])
	})

	t.Run("unparsable or out of range qualities default to 1", func(t *testing.T) {
		req := require.New(t)
		ranges := ParseMediaRanges("text/plain;q=0.2, application/json;q=abc, text/html;q=7")
		req.Equal([]string{"application/json", "text/html", "text/plain"}, keysOf(ranges))
		req.Equal(1.0, ranges[0].Quality)
		req.Equal(1.0, ranges[1].Quality)
	})

	t.Run("types are lower-cased and a bare star is the universal wildcard", func(t *testing.T) {
		req := require.New(t)
		ranges := ParseMediaRanges("Application/JSON, *")
		req.Equal([]string{"application/json", "*/*"}, keysOf(ranges))
		req.True(ranges[1].IsWildcard())
		req.False(ranges[0].IsWildcard())
	})

	t.Run("malformed entries are skipped", func(t *testing.T) {
		req := require.New(t)
		ranges := ParseMediaRanges("text, /json, */json, , application/json")
		req.Equal([]string{"application/json"}, keysOf(ranges))
	})

	t.Run("type wildcards are recognized", func(t *testing.T) {
		req := require.New(t)
		ranges := ParseMediaRanges("application/*")
		req.Len(ranges, 1)
		req.True(ranges[0].IsTypeWildcard())
		req.False(ranges[0].IsWildcard())
		req.Equal("application", ranges[0].Type)
	})
}

func TestParseTokenRanges(t *testing.T) {

	t.Run("tokens are ordered by quality", func(t *testing.T) {
		req := require.New(t)
		ranges := ParseTokenRanges("gzip;q=0.5, br, identity;q=0")
		req.Equal([]string{"br", "gzip", "identity"}, keysOf(ranges))
		req.Equal(0.0, ranges[2].Quality)
	})

	t.Run("language tags keep their region", func(t *testing.T) {
		req := require.New(t)
		ranges := ParseTokenRanges("en-US, fr;q=0.8")
		req.Equal("en-us", ranges[0].Type)
		req.Empty(ranges[0].Subtype)
	})
}

func Test_mediaTypeOf(t *testing.T) {
	req := require.New(t)
	req.Equal("text/html", mediaTypeOf(" Text/HTML; charset=utf-8"))
	req.Equal("application/*", typeWildcardOf("application/json"))
}
