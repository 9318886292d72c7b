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
	"strconv"
	"strings"
)

const (
	LinkHeader                  = "Link"
	ContentSecurityPolicyHeader = "Content-Security-Policy"
)

// HintLink describes a resource the client should fetch alongside the action's response.
type HintLink struct {
	Href          string
	Rel           []string
	Type          string
	As            string
	Preload       bool
	FetchPriority string
	CrossOrigin   string
}

// Hint is a set of links, and optionally a content security policy, attached to an Action. Hints are written as
// Link headers when the response is assembled.
type Hint struct {
	Links []HintLink
	CSP   string
}

// String formats the link as a Link header value.
func (link HintLink) String() string {
	var builder strings.Builder

	builder.WriteString("<")
	builder.WriteString(link.Href)
	builder.WriteString(">")

	if link.Preload {
		builder.WriteString("; rel=preload")
	}

	for _, rel := range link.Rel {
		builder.WriteString("; rel=")
		builder.WriteString(rel)
	}

	if link.Type != "" {
		builder.WriteString("; type=")
		builder.WriteString(strconv.Quote(link.Type))
	}

	if link.As != "" {
		builder.WriteString("; as=")
		builder.WriteString(link.As)
	}

	if link.FetchPriority != "" {
		builder.WriteString("; fetchpriority=")
		builder.WriteString(link.FetchPriority)
	}

	if link.CrossOrigin != "" {
		builder.WriteString("; crossorigin=")
		builder.WriteString(link.CrossOrigin)
	}

	return builder.String()
}
