//go:build !embed_openapi

package api

import (
	"os"

	"ispnet/openapi"
)

// openAPILoad prefers the on-disk spec so edits show up without a rebuild,
// falling back to the copy compiled into the binary.
func openAPILoad() ([]byte, error) {
	if b, err := os.ReadFile("openapi/openapi.yaml"); err == nil {
		return b, nil
	}
	return openapi.Spec, nil
}
