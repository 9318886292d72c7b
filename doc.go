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

/*
Package xaction provides declarative, content-negotiated action routing for HTTP.

Basics

An Action binds an HTTP method, a name and a URI template to an ordered table of handlers, one per content type the
action can produce. Actions are declared on a Registry, or on a Scope of it, through phase types: the access level
is chosen first (Public or Private), then hints may be attached, then handlers are declared:

	registry.Get("widgets.list", "/widgets").Public().
		Handle("text/plain", listText).
		Handle("application/json", listJSON)

Registry.Finalize freezes the declarations. Actions whose templates have the same shape once variable names are
erased ("/users/{id}" and "/users/:userId" both normalize to "/users/:value1") and the same method are collected
into one ActionGroup, and the groups are indexed in registration order by a DispatchIndex. After Finalize the index,
groups and actions are read-only and may be shared by any number of request goroutines.

Negotiation

For each request the Accept, Accept-Language and Accept-Encoding headers are parsed once into an AcceptContext.
Accept ranges are ordered by quality, ties keeping header order, and a request without an Accept header accepts
anything. The first group matching method and path resolves the request:

  - members whose content types cannot satisfy any accepted range are filtered out;
  - the remaining members are tried against each accepted range in order. The universal wildcard selects the first
    member's first content type. A type wildcard such as text/* selects the first member with a content type of that
    type, and a concrete range the first member declaring exactly that content type.

A method and path match with no acceptable content type is answered with 406 Not Acceptable, listing the content
types the public members could have served. No match at all is answered with 404 Not Found. Handler errors and
panics are logged once and answered with 500 Internal Server Error without leaking details.

Registry implements http.Handler. Structured bodies set by handlers are encoded with the codec.Registry configured
in RegistryConfig. Package web hosts registries on configured http.Server's and package metrics records dispatch
outcomes.
*/
package xaction
