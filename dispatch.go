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

import "net/http"

// DispatchIndex routes a request to the first ActionGroup, in registration order, that produces a MatchResult.
// Earlier groups always win; there is no most-specific-match ranking.
type DispatchIndex struct {
	groups []*ActionGroup
}

// NewDispatchIndex creates an index over groups, which must already be in registration order.
func NewDispatchIndex(groups []*ActionGroup) *DispatchIndex {
	return &DispatchIndex{
		groups: groups,
	}
}

// Groups returns the indexed groups in registration order.
func (index *DispatchIndex) Groups() []*ActionGroup {
	return index.groups
}

// Match returns the first non-nil result from the groups, or nil when no group matches method and path.
func (index *DispatchIndex) Match(method, path string, accept *AcceptContext) *MatchResult {
	return index.match(newProbe(method, path), accept)
}

func (index *DispatchIndex) match(probe *http.Request, accept *AcceptContext) *MatchResult {
	for _, group := range index.groups {
		if result := group.match(probe, accept); result != nil {
			return result
		}
	}
	return nil
}
