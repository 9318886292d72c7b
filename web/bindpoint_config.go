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

package web

import (
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// BindPointConfig is one listener of a ServerConfig: the local interface:port to listen on, the address clients
// reach it by, and optionally an address clients should move to.
type BindPointConfig struct {
	InterfaceAddress string //<interface>:<port>
	Address          string //<ip/host>:<port>
	NewAddress       string //<ip/host>:<port> advertised in NewAddressHeader, e.g. during an ip -> hostname move
}

// Parse reads `interface`, `address` and `newAddress`. The address defaults to the interface address.
func (bindPoint *BindPointConfig) Parse(config map[interface{}]interface{}) error {
	section := configMap(config)

	fields := []struct {
		key    string
		target *string
	}{
		{"interface", &bindPoint.InterfaceAddress},
		{"address", &bindPoint.Address},
		{"newAddress", &bindPoint.NewAddress},
	}

	for _, field := range fields {
		value, found, err := section.str(field.key)
		if err != nil {
			return err
		}
		if found {
			*field.target = value
		}
	}

	if _, found := section["address"]; !found {
		bindPoint.Address = bindPoint.InterfaceAddress
	}

	return nil
}

// Validate requires a valid interface and advertised address. The new address is optional.
func (bindPoint *BindPointConfig) Validate() error {
	if err := validateHostPort(bindPoint.InterfaceAddress); err != nil {
		return errors.Wrapf(err, "invalid interface address [%s]", bindPoint.InterfaceAddress)
	}

	if err := validateHostPort(bindPoint.Address); err != nil {
		return errors.Wrapf(err, "invalid advertise address [%s]", bindPoint.Address)
	}

	if bindPoint.NewAddress == "" {
		return nil
	}

	if err := validateHostPort(bindPoint.NewAddress); err != nil {
		return errors.Wrapf(err, "invalid new address [%s]", bindPoint.NewAddress)
	}

	return nil
}

// Host returns the host portion of the advertised address, which a TLS identity must be valid for.
func (bindPoint *BindPointConfig) Host() string {
	if host, _, err := net.SplitHostPort(bindPoint.Address); err == nil {
		return host
	}
	return bindPoint.Address
}

func validateHostPort(address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return errors.New("must not be an empty string or unspecified")
	}

	host, port, err := net.SplitHostPort(address)
	switch {
	case err != nil:
		return errors.Wrap(err, "could not split host and port")
	case host == "":
		return errors.New("host must be specified")
	case port == "":
		return errors.New("port must be specified")
	}

	// port 0 asks the OS for an ephemeral port
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return errors.Errorf("invalid port [%s], must be an integer between 0 and 65535", port)
	}

	return nil
}
