package graphqljit

import json "github.com/goccy/go-json"

func defaultStringify(value any) ([]byte, error) {
	return json.Marshal(value)
}
