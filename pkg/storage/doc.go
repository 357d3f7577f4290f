// Package storage defines how the transformation pipeline retrieves
// stylesheet objects from a blob-style store, addressed by connection
// string, container and object name.
//
// Backends are drivers (azblob, postgres, local, memory) selected by the
// shape of the connection string through a [Registry]. A client is opened
// per request and closed when the request ends; nothing is cached.
// This package contains the interfaces, the registry and the sentinel
// errors shared by every driver.
package storage
