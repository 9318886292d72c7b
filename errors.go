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
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotFinalized is returned by Registry.HandleRequest when Registry.Finalize has not run. It is a programmer
	// error and is never translated into a 404.
	ErrNotFinalized = errors.New("action registry has not been finalized")

	// ErrRegistryFinalized is raised when actions are declared or modified after Registry.Finalize, and returned
	// by a second call to Finalize.
	ErrRegistryFinalized = errors.New("action registry has already been finalized")
)

// HandlerError is a handler failure, or a recovered handler panic, enriched with the dispatch context it occurred
// in. It is logged by the Registry and never written to the response body unless RegistryConfig.ExposeErrors is set.
type HandlerError struct {
	Action      string
	ContentType string
	Method      string
	Path        string
	Cause       error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler for action [%s] content type [%s] failed on %s %s: %v", e.Action, e.ContentType, e.Method, e.Path, e.Cause)
}

func (e *HandlerError) Unwrap() error {
	return e.Cause
}
