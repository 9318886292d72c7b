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

import "time"

// Outcome classifies how a request left the dispatcher.
type Outcome string

const (
	OutcomeMatch         Outcome = "match"
	OutcomeNotAcceptable Outcome = "not_acceptable"
	OutcomeNotFound      Outcome = "not_found"
	OutcomeError         Outcome = "error"
)

// DispatchEvent describes one dispatched request. Action and ContentType are empty unless an action was selected.
type DispatchEvent struct {
	Outcome     Outcome
	Method      string
	Path        string
	Action      string
	ContentType string
	RequestId   string
	Duration    time.Duration
}

// Observer receives a DispatchEvent for every request handled by a Registry. Implementations are called
// synchronously on the request goroutine and must be safe for concurrent use.
type Observer interface {
	ObserveDispatch(event DispatchEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(event DispatchEvent)

func (f ObserverFunc) ObserveDispatch(event DispatchEvent) {
	f(event)
}
