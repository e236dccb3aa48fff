/*
Package gconf implements a configuration store intended to be used as a
global, in-database configuration.

Each extension keeps a single configuration object, saved under the
"_c:<pkg>" key. The configuration can be loaded from the "conf" section of a
genesis document.

Configuration objects are amino encoded and must be validated before they are
written.
*/
package gconf
