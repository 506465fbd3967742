package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/shopspring/decimal"

	"github.com/jbweber/homelab/shelf/internal/crud"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error            string           `json:"error"`
	ValidationErrors crud.FieldErrors `json:"validation_errors,omitempty"`
	Entity           any              `json:"entity,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, ErrorResponse{Error: message})
}

// routeID parses the {id} URL parameter.
func routeID(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", idStr)
	}
	return id, nil
}

// decodeEntity reads a JSON body into T. A field value that cannot be converted to the
// field's Go type is reported as a field error, so it reaches the caller alongside
// validation problems, and the rest of the body is still decoded. Any other decoding
// failure is returned as err.
func decodeEntity[T any](w http.ResponseWriter, r *http.Request) (entity T, binding crud.FieldErrors, err error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return entity, nil, err
	}

	err = json.Unmarshal(body, &entity)

	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case err == nil:
		return entity, nil, nil
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return entity, crud.FieldErrors{typeErr.Field: typeMessage(typeErr.Type)}, nil
	case errors.As(err, &syntaxErr):
		return entity, nil, err
	}

	// a json.Unmarshaler such as decimal.Decimal failed: find the field and decode the rest
	binding, rest := invalidFields[T](body)
	if len(binding) == 0 {
		return entity, nil, err
	}
	var partial T
	if err := json.Unmarshal(rest, &partial); err != nil {
		return entity, nil, err
	}
	return partial, binding, nil
}

// invalidFields decodes every top-level member of body into its struct field on its own
// and reports the members that fail. rest is body without them.
func invalidFields[T any](body []byte) (crud.FieldErrors, []byte) {
	typ := reflect.TypeFor[T]()
	var members map[string]json.RawMessage
	if typ.Kind() != reflect.Struct || json.Unmarshal(body, &members) != nil {
		return nil, nil
	}

	fields := crud.FieldErrors{}
	for i := range typ.NumField() {
		f := typ.Field(i)
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		raw, ok := members[name]
		if name == "" || name == "-" || !ok {
			continue
		}
		if json.Unmarshal(raw, reflect.New(f.Type).Interface()) != nil {
			fields[name] = typeMessage(f.Type)
			delete(members, name)
		}
	}

	rest, err := json.Marshal(members)
	if err != nil {
		return nil, nil
	}
	return fields, rest
}

func typeMessage(t reflect.Type) string {
	if t == decimalType {
		return "must be a number"
	}
	return "must be of type " + t.String()
}

var decimalType = reflect.TypeFor[decimal.Decimal]()
