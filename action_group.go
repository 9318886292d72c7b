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

	"goji.io/pat"
)

// MatchKind distinguishes the two non-nil outcomes of matching a request against an ActionGroup.
type MatchKind int

const (
	// MatchFound means an Action and one of its content types were selected.
	MatchFound MatchKind = iota

	// MatchUnsupportedContentType means method and path matched but no public Action offers a content type the
	// client accepts. ContentTypes lists what could have been served.
	MatchUnsupportedContentType
)

func (kind MatchKind) String() string {
	switch kind {
	case MatchFound:
		return "match"
	case MatchUnsupportedContentType:
		return "unsupported-content-type"
	default:
		return "unknown"
	}
}

// MatchResult is the outcome of a successful method and path match. A nil *MatchResult means no match.
type MatchResult struct {
	Kind MatchKind

	// set for MatchFound
	Action      *Action
	ContentType string
	Params      map[string]string

	// set for MatchUnsupportedContentType
	ContentTypes []string
}

// ActionGroup holds the Actions sharing a method and a normalized path. Members keep registration order, which
// is the final tie-break when several members satisfy the same accept entry.
type ActionGroup struct {
	method         string
	normalizedPath string
	pattern        *pat.Pattern
	members        []*Action
}

// NewActionGroup creates a group. All members must have the given method and normalized path.
func NewActionGroup(method, normalizedPath string, members []*Action) *ActionGroup {
	return &ActionGroup{
		method:         method,
		normalizedPath: normalizedPath,
		pattern:        pat.New(normalizedPath),
		members:        members,
	}
}

// Method returns the group's upper-cased method.
func (group *ActionGroup) Method() string {
	return group.method
}

// NormalizedPath returns the shape shared by all members.
func (group *ActionGroup) NormalizedPath() string {
	return group.normalizedPath
}

// Members returns the Actions of the group in registration order.
func (group *ActionGroup) Members() []*Action {
	return group.members
}

// Matches resolves a request against the group. See MatchResult for the possible outcomes.
func (group *ActionGroup) Matches(method, path string, accept *AcceptContext) *MatchResult {
	if method != group.method {
		return nil
	}
	return group.match(newProbe(method, path), accept)
}

// match expects probe to carry the request method and the path set with pattern.SetPath.
func (group *ActionGroup) match(probe *http.Request, accept *AcceptContext) *MatchResult {
	if probe.Method != group.method {
		return nil
	}

	matched := group.pattern.Match(probe)
	if matched == nil {
		return nil
	}

	var candidates []string
	seen := map[string]struct{}{}
	var matches []*Action

	for _, action := range group.members {
		if action.public {
			for _, handler := range action.handlers {
				if _, ok := seen[handler.ContentType]; !ok {
					seen[handler.ContentType] = struct{}{}
					candidates = append(candidates, handler.ContentType)
				}
			}
		}

		if accept.Intersects(action.acceptCache) {
			matches = append(matches, action)
		}
	}

	if len(matches) == 0 {
		if len(candidates) != 0 {
			return &MatchResult{
				Kind:         MatchUnsupportedContentType,
				ContentTypes: candidates,
			}
		}
		return nil
	}

	action, contentType := negotiate(matches, accept.negotiable)
	if action == nil {
		return nil
	}

	return &MatchResult{
		Kind:        MatchFound,
		Action:      action,
		ContentType: contentType,
		Params:      action.path.Values(matched),
	}
}

// negotiate walks the accept entries in preference order and returns the first Action, in registration order,
// able to serve the entry.
func negotiate(matches []*Action, ranges []MediaRange) (*Action, string) {
	for _, mediaRange := range ranges {
		switch {
		case mediaRange.IsWildcard():
			action := matches[0]
			if len(action.handlers) == 0 {
				continue
			}
			return action, action.handlers[0].ContentType

		case mediaRange.IsTypeWildcard():
			for _, action := range matches {
				if contentType, ok := action.firstContentTypeWithin(mediaRange.Type); ok {
					return action, contentType
				}
			}

		default:
			key := mediaRange.Key()
			for _, action := range matches {
				if action.hasContentType(key) {
					return action, key
				}
			}
		}
	}

	return nil, ""
}
