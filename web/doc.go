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
Package web hosts xaction.Registry instances on http.Server's built from configuration files.

Basics

Each Instance is responsible for defining the configuration section to be parsed (default `web`), parsing it, starting
servers and shutting them down. Configuration is expected to be acquired from some source, usually a YAML file, and
presented as a map of interface{}-to-interface{} values.

The `web` section is an array of ServerConfig's. Each ServerConfig listens on one or more interface/port
combinations specified by an array of BindPointConfig's and hosts one or more registries by defining an array of
ApiConfig's. An ApiConfig names a binding, which is looked up in Bindings, and the root path the registry is mounted
under. When a server hosts several registries, incoming requests are forwarded by a PathPrefixDemux.

Every http.Server runs the same handler chain: compression negotiated from Accept-Encoding, panic recovery, the
optional new address header of the bind point, the demux, and finally the registry, which performs content
negotiation and dispatches to an action.

When an identity is configured, either per server or as the default identity section, servers listen with TLS using
the identity's server certificates. Without one they listen on plain TCP.
*/
package web
