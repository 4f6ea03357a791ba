// Package telemetry keeps the latest hive sensor snapshot and publishes it to
// stream subscribers.
package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
)

// IRNone is the initial state of both infrared sensors.
const IRNone = "NONE"

var (
	// ErrMissingField is wrapped by Decode when a reading lacks a field.
	ErrMissingField = errors.New("missing field")
	// ErrNotFinite is wrapped by Decode for NaN or infinite sensor values,
	// which cannot be streamed as JSON.
	ErrNotFinite = errors.New("value is not finite")
)

// Snapshot is one complete reading from the hive microcontroller.
type Snapshot struct {
	DHTTemp     float64 `json:"dhtTemp"`
	DHTHumidity float64 `json:"dhtHumidity"`
	DSTemp      float64 `json:"dsTemp"`
	Weight      float64 `json:"weight"`
	Sound       float64 `json:"sound"`
	IR1         string  `json:"ir1"`
	IR2         string  `json:"ir2"`
}

// Initial returns the snapshot served before the first reading arrives.
func Initial() Snapshot {
	return Snapshot{IR1: IRNone, IR2: IRNone}
}

// Store holds the current snapshot. Set replaces it wholesale.
type Store struct {
	mu      sync.RWMutex
	current Snapshot
}

func NewStore() *Store {
	return &Store{current: Initial()}
}

func (s *Store) Get() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) Set(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = snap
}

// readingWire accepts numbers as JSON numbers or numeric strings and IR
// states as strings, numbers or booleans.
type readingWire struct {
	DHTTemp     any `json:"dhtTemp"`
	DHTHumidity any `json:"dhtHumidity"`
	DSTemp      any `json:"dsTemp"`
	Weight      any `json:"weight"`
	Sound       any `json:"sound"`
	IR1         any `json:"ir1"`
	IR2         any `json:"ir2"`
}

// Decode parses one reading. Every field is required.
func Decode(r io.Reader) (Snapshot, error) {
	var w readingWire
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&w); err != nil {
		return Snapshot{}, fmt.Errorf("invalid JSON: %w", err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return Snapshot{}, errors.New("invalid JSON: unexpected data after reading")
	}

	var snap Snapshot
	var err error
	numbers := []struct {
		name string
		raw  any
		dst  *float64
	}{
		{"dhtTemp", w.DHTTemp, &snap.DHTTemp},
		{"dhtHumidity", w.DHTHumidity, &snap.DHTHumidity},
		{"dsTemp", w.DSTemp, &snap.DSTemp},
		{"weight", w.Weight, &snap.Weight},
		{"sound", w.Sound, &snap.Sound},
	}
	for _, f := range numbers {
		if *f.dst, err = toFloat(f.raw); err != nil {
			return Snapshot{}, fmt.Errorf("%s: %w", f.name, err)
		}
		if math.IsNaN(*f.dst) || math.IsInf(*f.dst, 0) {
			return Snapshot{}, fmt.Errorf("%s: %w", f.name, ErrNotFinite)
		}
	}

	if snap.IR1, err = toString(w.IR1); err != nil {
		return Snapshot{}, fmt.Errorf("ir1: %w", err)
	}
	if snap.IR2, err = toString(w.IR2); err != nil {
		return Snapshot{}, fmt.Errorf("ir2: %w", err)
	}
	return snap, nil
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case json.Number:
		return t.Float64()
	case float64:
		return t, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	case nil:
		return 0, ErrMissingField
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func toString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	case nil:
		return "", ErrMissingField
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}
