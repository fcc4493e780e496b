// Package bind decodes a JSON request body into a struct and validates it.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/artisansally/ally/config"
	"github.com/artisansally/ally/pkg/validate"
)

// ErrMalformed marks bodies that are not decodable JSON.
var ErrMalformed = errors.New("malformed JSON body")

func maxBodyBytes() int64 {
	n, err := strconv.ParseInt(config.Get("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil || n <= 0 {
		return 1 << 20
	}
	return n
}

// JSON decodes r.Body into dest (capped at MAX_BODY_BYTES) and validates it.
// A decode failure returns an error wrapping ErrMalformed; rule failures are
// returned as the field map with a nil error.
func JSON(r *http.Request, dest interface{}) (map[string]string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrMalformed, maxErr.Limit)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if errs := validate.Struct(dest); validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}
