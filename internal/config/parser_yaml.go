package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

func parseYAML(content string, base Config) (Config, []Warning, error) {
	decoder := yaml.NewDecoder(strings.NewReader(content))
	decoder.KnownFields(true)

	var payload filePayload
	if err := decoder.Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, nil, err
	}

	var extra yaml.Node
	if err := decoder.Decode(&extra); err == nil {
		return Config{}, nil, fmt.Errorf("multiple YAML documents are not allowed")
	} else if !errors.Is(err, io.EOF) {
		return Config{}, nil, err
	}

	return finish(payload, base)
}
