// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across protocol/transport layers.
var (
	// ErrNotFound indicates the requested on-chain record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExpired indicates an attendance code outside the freshness window.
	ErrExpired = errors.New("code expired")

	// ErrNoSigner indicates no signing method or address is configured.
	ErrNoSigner = errors.New("no signer configured")

	// ErrSessionClosed indicates a signer session already completed or was torn down.
	ErrSessionClosed = errors.New("signer session closed")

	// ErrPortExhausted indicates no loopback port could be bound for a signer session.
	ErrPortExhausted = errors.New("no free loopback port")

	// ErrNotDeployed indicates the protocol scripts are not deployed on the requested network.
	ErrNotDeployed = errors.New("scripts not deployed on network")
)
