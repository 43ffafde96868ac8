// Package codec encodes and decodes JSON with goccy/go-json, retrying with
// encoding/json when goccy panics on an unusual value.
package codec

import (
	jsonstd "encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
)

// Marshal encodes v.
func Marshal(v any) (encoded []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			encoded, err = jsonstd.Marshal(v)
		}
	}()
	return json.Marshal(v)
}

// Unmarshal decodes data into the non-nil pointer v.
func Unmarshal(data []byte, v any) (err error) {
	target := reflect.ValueOf(v)
	if !target.IsValid() || target.Kind() != reflect.Ptr || target.IsNil() {
		return errors.New("codec: decode target must be a non-nil pointer")
	}

	defer func() {
		if r := recover(); r != nil {
			fresh := reflect.New(target.Elem().Type())
			if err = jsonstd.Unmarshal(data, fresh.Interface()); err != nil {
				err = fmt.Errorf("codec: decode after recover (%v): %w", r, err)
				return
			}
			target.Elem().Set(fresh.Elem())
		}
	}()

	return json.Unmarshal(data, v)
}
