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
	"net/http"
	"strings"
)

const (
	AcceptHeader         = "Accept"
	AcceptLanguageHeader = "Accept-Language"
	AcceptEncodingHeader = "Accept-Encoding"
	ContentTypeHeader    = "Content-Type"

	IdentityEncoding = "identity"
)

var unrestrictedRanges = []MediaRange{{Type: Wildcard, Subtype: Wildcard, Quality: 1}}

// AcceptContext holds the parsed negotiation headers of a single request. It is created once per request, reused
// for every candidate ActionGroup and never modified after construction.
type AcceptContext struct {
	contentTypes []MediaRange
	languages    []MediaRange
	encodings    []MediaRange

	// ordered content type ranges with q=0 entries removed, or */* when no Accept header was sent
	negotiable []MediaRange

	// flattened type/subtype, type/* and */* keys of negotiable
	contentTypeSet map[string]struct{}
}

// NewAcceptContext parses the raw Accept, Accept-Language and Accept-Encoding values.
func NewAcceptContext(accept, acceptLanguage, acceptEncoding string) *AcceptContext {
	acceptContext := &AcceptContext{
		contentTypes:   ParseMediaRanges(accept),
		languages:      ParseTokenRanges(acceptLanguage),
		encodings:      ParseTokenRanges(acceptEncoding),
		contentTypeSet: map[string]struct{}{},
	}

	if len(acceptContext.contentTypes) == 0 {
		acceptContext.negotiable = unrestrictedRanges
	} else {
		for _, mediaRange := range acceptContext.contentTypes {
			if mediaRange.Quality <= 0 {
				continue
			}
			acceptContext.negotiable = append(acceptContext.negotiable, mediaRange)
		}
	}

	for _, mediaRange := range acceptContext.negotiable {
		acceptContext.contentTypeSet[mediaRange.Key()] = struct{}{}
	}

	return acceptContext
}

// AcceptContextFromRequest returns the AcceptContext for a request. If a handler earlier in the chain already
// stored one on the request context (see WithAcceptContext) it is reused, otherwise the headers are parsed.
func AcceptContextFromRequest(request *http.Request) *AcceptContext {
	if acceptContext := acceptFromContext(request.Context()); acceptContext != nil {
		return acceptContext
	}

	return NewAcceptContext(
		request.Header.Get(AcceptHeader),
		request.Header.Get(AcceptLanguageHeader),
		request.Header.Get(AcceptEncodingHeader),
	)
}

// ContentTypes returns the parsed Accept ranges ordered by preference. Empty when no Accept header was sent.
func (accept *AcceptContext) ContentTypes() []MediaRange {
	return accept.contentTypes
}

// Languages returns the parsed Accept-Language ranges ordered by preference.
func (accept *AcceptContext) Languages() []MediaRange {
	return accept.languages
}

// Encodings returns the parsed Accept-Encoding ranges ordered by preference.
func (accept *AcceptContext) Encodings() []MediaRange {
	return accept.encodings
}

// Unrestricted is true when the request did not send an Accept header.
func (accept *AcceptContext) Unrestricted() bool {
	return len(accept.contentTypes) == 0
}

// Accepts reports whether a flattened key (type/subtype, type/* or */*) is present in the request.
func (accept *AcceptContext) Accepts(key string) bool {
	_, ok := accept.contentTypeSet[key]
	return ok
}

// Intersects reports whether any key of set is present in the request's flattened content type set.
func (accept *AcceptContext) Intersects(set map[string]struct{}) bool {
	small, large := set, accept.contentTypeSet
	if len(small) > len(large) {
		small, large = large, small
	}

	for key := range small {
		if _, ok := large[key]; ok {
			return true
		}
	}

	return false
}

// NegotiateEncoding returns the offer the client prefers according to Accept-Encoding. With no header the first
// offer is returned. "identity" is acceptable unless the client explicitly refused it, so it is returned when
// listed among the offers and nothing better matches. An empty string means no offer is acceptable.
func (accept *AcceptContext) NegotiateEncoding(offers ...string) string {
	if len(offers) == 0 {
		return ""
	}

	if len(accept.encodings) == 0 {
		return offers[0]
	}

	if match := negotiateTokens(accept.encodings, offers, false); match != "" {
		return match
	}

	for _, offer := range offers {
		if strings.EqualFold(offer, IdentityEncoding) && !refuses(accept.encodings, IdentityEncoding) {
			return offer
		}
	}

	return ""
}

// NegotiateLanguage returns the offer the client prefers according to Accept-Language. Language ranges match on
// prefix so "en" accepts "en-US" and the other way around.
func (accept *AcceptContext) NegotiateLanguage(offers ...string) string {
	if len(offers) == 0 {
		return ""
	}

	if len(accept.languages) == 0 {
		return offers[0]
	}

	return negotiateTokens(accept.languages, offers, true)
}

func negotiateTokens(ranges []MediaRange, offers []string, prefixMatch bool) string {
	for _, tokenRange := range ranges {
		if tokenRange.Quality <= 0 {
			continue
		}

		for _, offer := range offers {
			candidate := strings.ToLower(strings.TrimSpace(offer))

			if tokenRange.Type == Wildcard && !refuses(ranges, candidate) {
				return offer
			}

			if tokenRange.Type == candidate {
				return offer
			}

			if prefixMatch && (strings.HasPrefix(candidate, tokenRange.Type+"-") || strings.HasPrefix(tokenRange.Type, candidate+"-")) {
				return offer
			}
		}
	}

	return ""
}

// refuses is true when token is listed with q=0, or is not listed and * is listed with q=0.
func refuses(ranges []MediaRange, token string) bool {
	wildcardRefused := false
	for _, tokenRange := range ranges {
		if tokenRange.Type == token {
			return tokenRange.Quality <= 0
		}
		if tokenRange.Type == Wildcard && tokenRange.Quality <= 0 {
			wildcardRefused = true
		}
	}
	return wildcardRefused
}
