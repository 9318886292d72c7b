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
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/identity"
)

const (
	MinTLSVersion = tls.VersionTLS12
	MaxTLSVersion = tls.VersionTLS13

	DefaultHttpWriteTimeout = time.Second * 10
	DefaultHttpReadTimeout  = time.Second * 5
	DefaultHttpIdleTimeout  = time.Second * 5

	DefaultCompressionMinSize = 512
)

// TlsVersionMap is a map of configuration strings to TLS version identifiers
var TlsVersionMap = map[string]int{
	"TLS1.0": tls.VersionTLS10,
	"TLS1.1": tls.VersionTLS11,
	"TLS1.2": tls.VersionTLS12,
	"TLS1.3": tls.VersionTLS13,
}

// ReverseTlsVersionMap is a map of TLS version identifiers to configuration strings
var ReverseTlsVersionMap = map[int]string{
	tls.VersionTLS10: "TLS1.0",
	tls.VersionTLS11: "TLS1.1",
	tls.VersionTLS12: "TLS1.2",
	tls.VersionTLS13: "TLS1.3",
}

// InstanceConfig is the parsed form of the configuration section listing the servers of an Instance.
type InstanceConfig struct {
	SourceConfig map[interface{}]interface{}

	ServerConfigs []*ServerConfig
	Section       string

	// DefaultIdentity is used by servers that do not configure their own. Without any identity servers listen on
	// plain TCP.
	DefaultIdentity        identity.Identity
	DefaultIdentitySection string

	// loaded into DefaultIdentity by Validate
	defaultIdentityConfig *identity.Config

	enabled bool
}

// Parse reads the optional default identity section and the list of servers in Section.
func (config *InstanceConfig) Parse(sourceMap map[interface{}]interface{}) error {
	config.SourceConfig = sourceMap
	source := configMap(sourceMap)

	if config.Section == "" {
		return errors.New("web section not specified for configuration")
	}

	if config.DefaultIdentity == nil && config.DefaultIdentitySection != "" {
		identitySection, found, err := source.section(config.DefaultIdentitySection)
		if err != nil {
			return fmt.Errorf("root identity section [%s] must be a map", config.DefaultIdentitySection)
		}
		if found {
			if config.defaultIdentityConfig, err = parseIdentityConfig(identitySection, config.DefaultIdentitySection); err != nil {
				return fmt.Errorf("error parsing root identity section [%s]: %v", config.DefaultIdentitySection, err)
			}
		}
	}

	serverSections, found, err := source.sections(config.Section)
	if err != nil {
		return fmt.Errorf("web section [%s] must be an array of maps: %v", config.Section, err)
	}
	if !found {
		return fmt.Errorf("web section [%s] must be defined", config.Section)
	}

	for i, serverSection := range serverSections {
		serverConfig := &ServerConfig{
			DefaultIdentity: config.DefaultIdentity,
		}
		if err := serverConfig.Parse(serverSection, fmt.Sprintf("%s[%d]", config.Section, i)); err != nil {
			return fmt.Errorf("error parsing web configuration [%s] at index [%d]: %v", config.Section, i, err)
		}
		config.ServerConfigs = append(config.ServerConfigs, serverConfig)
	}

	return nil
}

// Validate loads the default identity if one was configured, validates every ServerConfig against bindings and
// checks that each server identity is valid for the hosts of its bind points. The configuration is enabled only
// once validation passes.
func (config *InstanceConfig) Validate(bindings Bindings) error {
	if config.DefaultIdentity == nil && config.defaultIdentityConfig != nil {
		defaultIdentity, err := identity.LoadIdentity(*config.defaultIdentityConfig)
		if err != nil {
			return fmt.Errorf("could not load default identity: %v", err)
		}
		config.DefaultIdentity = defaultIdentity

		if err = config.DefaultIdentity.WatchFiles(); err != nil {
			pfxlog.Logger().Warnf("could not enable file watching on default identity: %v", err)
		}
	}

	if len(config.ServerConfigs) == 0 {
		return fmt.Errorf("no servers defined in section [%s]", config.Section)
	}

	var errs []error
	for i, serverConfig := range config.ServerConfigs {
		serverConfig.DefaultIdentity = config.DefaultIdentity

		if err := serverConfig.Validate(bindings); err != nil {
			return fmt.Errorf("could not validate server at %s[%d]: %v", config.Section, i, err)
		}

		if !serverConfig.TLSEnabled() {
			continue
		}

		for _, bindPoint := range serverConfig.BindPoints {
			if err := serverConfig.Identity.ValidFor(bindPoint.Host()); err != nil {
				errs = append(errs, fmt.Errorf("server [%s] identity is not valid for bind point [%s]: %w", serverConfig.Name, bindPoint.Address, err))
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	config.enabled = true

	return nil
}

// Enabled is true once Validate has passed.
func (config *InstanceConfig) Enabled() bool {
	return config.enabled
}

// Options is the shared options for a ServerConfig.
type Options struct {
	TimeoutOptions
	TlsVersionOptions
	CompressionOptions
}

func (options *Options) Default() {
	options.TimeoutOptions.Default()
	options.TlsVersionOptions.Default()
	options.CompressionOptions.Default()
}

func (options *Options) Parse(optionsMap map[interface{}]interface{}) error {
	section := configMap(optionsMap)

	parsers := []func(configMap) error{
		options.TimeoutOptions.parse,
		options.TlsVersionOptions.parse,
		options.CompressionOptions.parse,
	}

	for _, parse := range parsers {
		if err := parse(section); err != nil {
			return fmt.Errorf("error parsing options: %v", err)
		}
	}

	return nil
}

func (options *Options) Validate() error {
	if err := options.TlsVersionOptions.Validate(); err != nil {
		return fmt.Errorf("invalid TLS version option: %v", err)
	}

	if err := options.TimeoutOptions.Validate(); err != nil {
		return fmt.Errorf("invalid timeout option: %v", err)
	}

	if err := options.CompressionOptions.Validate(); err != nil {
		return fmt.Errorf("invalid compression option: %v", err)
	}

	return nil
}

// TimeoutOptions are the http.Server read, idle and write timeouts.
type TimeoutOptions struct {
	ReadTimeout  time.Duration
	IdleTimeout  time.Duration
	WriteTimeout time.Duration
}

func (timeoutOptions *TimeoutOptions) Default() {
	timeoutOptions.WriteTimeout = DefaultHttpWriteTimeout
	timeoutOptions.ReadTimeout = DefaultHttpReadTimeout
	timeoutOptions.IdleTimeout = DefaultHttpIdleTimeout
}

func (timeoutOptions *TimeoutOptions) timeouts() map[string]*time.Duration {
	return map[string]*time.Duration{
		"readTimeout":  &timeoutOptions.ReadTimeout,
		"idleTimeout":  &timeoutOptions.IdleTimeout,
		"writeTimeout": &timeoutOptions.WriteTimeout,
	}
}

func (timeoutOptions *TimeoutOptions) parse(section configMap) error {
	for key, target := range timeoutOptions.timeouts() {
		duration, found, err := section.duration(key)
		if err != nil {
			return err
		}
		if found {
			*target = duration
		}
	}
	return nil
}

// Validate requires every timeout to be positive.
func (timeoutOptions *TimeoutOptions) Validate() error {
	for key, timeout := range timeoutOptions.timeouts() {
		if *timeout <= 0 {
			return fmt.Errorf("value [%s] for %s too low, must be positive", timeout.String(), key)
		}
	}
	return nil
}

// TlsVersionOptions bound the TLS versions negotiated by servers with an identity.
type TlsVersionOptions struct {
	MinTLSVersion    int
	minTLSVersionStr string

	MaxTLSVersion    int
	maxTLSVersionStr string
}

func (tlsVersionOptions *TlsVersionOptions) Default() {
	tlsVersionOptions.MinTLSVersion = MinTLSVersion
	tlsVersionOptions.minTLSVersionStr = ReverseTlsVersionMap[MinTLSVersion]
	tlsVersionOptions.MaxTLSVersion = MaxTLSVersion
	tlsVersionOptions.maxTLSVersionStr = ReverseTlsVersionMap[MaxTLSVersion]
}

func (tlsVersionOptions *TlsVersionOptions) parse(section configMap) error {
	if err := parseTlsVersion(section, "minTLSVersion", &tlsVersionOptions.MinTLSVersion, &tlsVersionOptions.minTLSVersionStr); err != nil {
		return err
	}
	return parseTlsVersion(section, "maxTLSVersion", &tlsVersionOptions.MaxTLSVersion, &tlsVersionOptions.maxTLSVersionStr)
}

func parseTlsVersion(section configMap, key string, version *int, versionStr *string) error {
	value, found, err := section.str(key)
	if err != nil || !found {
		return err
	}

	parsed, ok := TlsVersionMap[value]
	if !ok {
		return fmt.Errorf("could not use value for %s, invalid value [%s]", key, value)
	}

	*version = parsed
	*versionStr = value
	return nil
}

func (tlsVersionOptions *TlsVersionOptions) Validate() error {
	if tlsVersionOptions.MinTLSVersion > tlsVersionOptions.MaxTLSVersion {
		return fmt.Errorf("minTLSVersion [%s] must be less than or equal to maxTLSVersion [%s]", tlsVersionOptions.minTLSVersionStr, tlsVersionOptions.maxTLSVersionStr)
	}
	return nil
}

// CompressionOptions configure the middleware.NewCompressionHandler wrapping every server.
type CompressionOptions struct {
	CompressionEnabled bool
	CompressionMinSize int
}

func (compressionOptions *CompressionOptions) Default() {
	compressionOptions.CompressionEnabled = true
	compressionOptions.CompressionMinSize = DefaultCompressionMinSize
}

// parse reads an optional `compression` map with `enabled` and `minSize`.
func (compressionOptions *CompressionOptions) parse(section configMap) error {
	compression, found, err := section.section("compression")
	if err != nil || !found {
		return err
	}

	if enabled, found, err := compression.boolean("enabled"); err != nil {
		return err
	} else if found {
		compressionOptions.CompressionEnabled = enabled
	}

	if minSize, found, err := compression.integer("minSize"); err != nil {
		return err
	} else if found {
		compressionOptions.CompressionMinSize = minSize
	}

	return nil
}

func (compressionOptions *CompressionOptions) Validate() error {
	if compressionOptions.CompressionMinSize < 0 {
		return fmt.Errorf("value [%d] for compression.minSize too low, must not be negative", compressionOptions.CompressionMinSize)
	}
	return nil
}

func parseIdentityConfig(identityMap map[interface{}]interface{}, pathContext string) (*identity.Config, error) {
	idConfig, err := identity.NewConfigFromMap(identityMap)
	if err != nil {
		return nil, fmt.Errorf("error parsing identity: %v", err)
	}

	if err = idConfig.ValidateWithPathContext(pathContext); err != nil {
		return nil, fmt.Errorf("error parsing identity: %v", err)
	}

	return idConfig, nil
}
