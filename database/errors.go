package database

import "errors"

// Core error taxonomy. Callers match with errors.Is; the HTTP error handler
// maps these onto response statuses.
var (
	// ErrConnectTimeout means a dial did not reach a ready connection within
	// the configured timeout. Retryable by the caller.
	ErrConnectTimeout = errors.New("database: connect timeout")

	// ErrDialFailed is a generic transport failure, distinct from a timeout.
	ErrDialFailed = errors.New("database: dial failed")

	// ErrSchemaConflict means provisioning found the target database name
	// already in use. Not retryable with the same name.
	ErrSchemaConflict = errors.New("database: schema conflict")

	// ErrCacheClosed is returned once draining has started; no new
	// connections are admitted.
	ErrCacheClosed = errors.New("database: connection cache closed")

	// ErrTenantNotFound means no tenant record exists for the token subject.
	ErrTenantNotFound = errors.New("database: tenant not found")

	// ErrTenantInactive means the tenant record is deactivated; tokens issued
	// earlier stay structurally valid but must not be served.
	ErrTenantInactive = errors.New("database: tenant inactive")
)
