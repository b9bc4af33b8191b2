package models

import (
	"errors"
	"time"

	"github.com/mohae/deepcopy"
)

// ErrMalformedDocument is returned when a document lacks the shape needed
// for a display projection (e.g. no "info" object).
var ErrMalformedDocument = errors.New("malformed metadata document")

// Document is a display-ready metadata document (Kodi list item shape:
// "ids", "info", "art").
type Document map[string]any

// Movie is the locally cached record for one Trakt movie
type Movie struct {
	TraktID int64 `boltholdKey:"TraktID"`

	// Meta is nil until the metadata has been resolved
	Meta Document

	// Local flags, never derived from remote metadata
	Watched   bool `boltholdIndex:"Watched"`
	Collected bool `boltholdIndex:"Collected"`

	LastUpdated time.Time
	AirDate     string
}

// Resolved reports whether the record holds an actual metadata document
func (m *Movie) Resolved() bool {
	return m != nil && m.Meta != nil
}

// Info returns the document's "info" object
func (d Document) Info() (map[string]any, error) {
	raw, ok := d["info"]
	if !ok {
		return nil, ErrMalformedDocument
	}
	info, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrMalformedDocument
	}
	return info, nil
}

// AirDate returns info.aired, falling back to info.premiered.
func (d Document) AirDate() string {
	info, err := d.Info()
	if err != nil {
		return ""
	}
	if aired, ok := info["aired"].(string); ok && aired != "" {
		return aired
	}
	premiered, _ := info["premiered"].(string)
	return premiered
}

// StampPlayCount sets info.playcount to 1 when watched, 0 otherwise.
func (d Document) StampPlayCount(watched bool) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	if watched {
		info["playcount"] = 1
	} else {
		info["playcount"] = 0
	}
	return nil
}

// Clone returns a deep copy of the document, nested composites included
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return deepcopy.Copy(d).(Document)
}
