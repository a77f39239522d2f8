package output

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

func renderJSON(value any) (string, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// renderYAML goes through JSON first so raw JSON fields and json tags carry over.
func renderYAML(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return "", err
	}

	out, err := yaml.Marshal(generic)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
