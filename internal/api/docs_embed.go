//go:build embed_openapi

package api

import "ispnet/openapi"

func openAPILoad() ([]byte, error) { return openapi.Spec, nil }
