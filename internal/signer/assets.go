package signer

import (
	_ "embed"
)

// signerPage is the interactive page served to the viewer. It reads the
// request descriptor from /session, lets the user complete the action with
// their wallet, and posts the result to /callback.
//
//go:embed signer.html
var signerPage []byte
