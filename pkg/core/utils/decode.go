package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

var (
	// ErrNotAnObject is returned when model text decodes to something other
	// than a JSON object.
	ErrNotAnObject = errors.New("not a JSON object")
	ErrUndecodable = errors.New("no decoder accepted the text")
)

// Strategy names, in the order they are tried.
const (
	StrategyJSON   = "json"
	StrategyRepair = "repair"
	StrategyHJSON  = "hjson"
)

type strategy struct {
	name   string
	decode func(text string) (any, error)
}

// Model output drifts from strict JSON in predictable ways: a fenced block,
// trailing commas, single quotes, unquoted keys, comments. Strategies go from
// strict to lenient and the first that yields a value wins.
var strategies = []strategy{
	{StrategyJSON, func(text string) (any, error) {
		var v any
		err := json.Unmarshal([]byte(CleanMarkdown(text)), &v)
		return v, err
	}},
	{StrategyRepair, func(text string) (any, error) {
		repaired, err := jsonrepair.RepairJSON(text)
		if err != nil {
			return nil, err
		}
		var v any
		err = json.Unmarshal([]byte(repaired), &v)
		return v, err
	}},
	{StrategyHJSON, func(text string) (any, error) {
		var v any
		err := hjson.Unmarshal([]byte(CleanMarkdown(text)), &v)
		return v, err
	}},
}

// DecodeObject decodes model text into a generic JSON object and names the
// strategy that succeeded. Values keep their JSON types (string, bool,
// float64, []any, map[string]any); nothing is converted to match a schema.
func DecodeObject(text string) (map[string]any, string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, "", fmt.Errorf("%w: empty input", ErrNotAnObject)
	}
	for _, s := range strategies {
		v, err := s.decode(text)
		if err != nil || v == nil {
			continue
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, s.name, fmt.Errorf("%w: got %T", ErrNotAnObject, v)
		}
		return obj, s.name, nil
	}
	return nil, "", ErrUndecodable
}

// ParseObject is DecodeObject without the strategy name.
func ParseObject(text string) (map[string]any, error) {
	obj, _, err := DecodeObject(text)
	return obj, err
}
