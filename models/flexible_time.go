package models

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/bsontype"
)

const flexibleLayout = "2006-01-02T15:04:05"

var (
	locationMu sync.RWMutex
	location   = loadLocation("Africa/Tunis")
)

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("CET", 3600)
	}
	return loc
}

// SetLocation change le fuseau horaire utilisé pour lire et écrire les dates
func SetLocation(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("fuseau horaire inconnu %q: %w", name, err)
	}
	locationMu.Lock()
	location = loc
	locationMu.Unlock()
	return nil
}

// Location retourne le fuseau horaire de l'application
func Location() *time.Location {
	locationMu.RLock()
	defer locationMu.RUnlock()
	return location
}

// FlexibleTime gère plusieurs formats de dates
type FlexibleTime struct {
	time.Time
}

// UnmarshalJSON accepte plusieurs formats de dates, interprétés dans le fuseau local
func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "null" || s == "" {
		ft.Time = time.Time{}
		return nil
	}

	// RFC3339 garde son décalage explicite
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		ft.Time = t
		return nil
	}

	formats := []string{
		flexibleLayout,     // "2025-12-31T20:00:00"
		"2006-01-02T15:04", // "2025-12-31T20:00"
		"2006-01-02 15:04", // "2025-12-31 20:00"
		"2006-01-02",       // "2025-12-31"
	}

	loc := Location()
	for _, layout := range formats {
		parsedTime, parseErr := time.ParseInLocation(layout, s, loc)
		if parseErr == nil {
			ft.Time = parsedTime
			return nil
		}
	}

	return fmt.Errorf("format de date invalide: %s", s)
}

// MarshalJSON retourne la date dans le fuseau local, sans décalage
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	if ft.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte("\"" + ft.Time.In(Location()).Format(flexibleLayout) + "\""), nil
}

// MarshalBSONValue stocke FlexibleTime comme une date MongoDB
func (ft *FlexibleTime) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if ft == nil || ft.Time.IsZero() {
		return bsontype.Null, nil, nil
	}

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(ft.Time.UnixMilli()))
	return bsontype.DateTime, buf, nil
}

// UnmarshalBSONValue décode une date MongoDB en FlexibleTime
func (ft *FlexibleTime) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.DateTime:
		if len(data) < 8 {
			return fmt.Errorf("invalid DateTime data: need 8 bytes, got %d", len(data))
		}
		ft.Time = time.UnixMilli(int64(binary.LittleEndian.Uint64(data[:8])))
		return nil
	case bsontype.Null:
		ft.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("cannot decode %v into FlexibleTime", t)
	}
}

// Ptr retourne un pointeur vers la date, ou nil si elle est vide
func (ft *FlexibleTime) Ptr() *time.Time {
	if ft == nil || ft.Time.IsZero() {
		return nil
	}
	t := ft.Time
	return &t
}
