// Package yamlutil provides a strict YAML decode helper, adapted from
// EdgeComet-engine's internal/common/yamlutil so feignconfig rejects
// misspelled configuration keys instead of silently ignoring them.
package yamlutil

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnmarshalStrict unmarshals data into v with unknown-field checking
// enabled: a YAML key with no matching struct field is an error rather
// than a silent no-op.
func UnmarshalStrict(data []byte, v interface{}) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(v); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "field") && strings.Contains(errStr, "not found") {
			return fmt.Errorf("unknown configuration field (check for typos): %w", err)
		}
		return err
	}
	return nil
}
