package api

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ispnet/internal/coverage"
	"ispnet/internal/geo"
	"ispnet/internal/model"
)

const maxBodyBytes = 1 << 20

// parsePoint reads lat and lng query parameters. Range checks are left to
// the resolver; parse failures already wrap coverage.ErrInvalidPoint.
func parsePoint(q url.Values) (geo.Point, error) {
	var p geo.Point
	for _, f := range []struct {
		name string
		dst  *float64
	}{{"lat", &p.Lat}, {"lng", &p.Lng}} {
		raw := strings.TrimSpace(q.Get(f.name))
		if raw == "" {
			return geo.Point{}, fmt.Errorf("%w: %s is required", coverage.ErrInvalidPoint, f.name)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return geo.Point{}, fmt.Errorf("%w: %s=%q is not a number", coverage.ErrInvalidPoint, f.name, raw)
		}
		*f.dst = v
	}
	return p, nil
}

// decodePathRequest reads a ComputePathRequest body. Unknown fields are
// rejected so typos in constraint names do not silently widen the search.
func decodePathRequest(w http.ResponseWriter, r *http.Request) (model.ComputePathRequest, error) {
	var req model.ComputePathRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if err == io.EOF {
			return req, fmt.Errorf("empty body")
		}
		return req, err
	}
	return req, nil
}

func boolParam(q url.Values, name string) bool {
	v, err := strconv.ParseBool(q.Get(name))
	return err == nil && v
}
