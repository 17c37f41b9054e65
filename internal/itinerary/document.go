// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package itinerary

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// StatusPlanned is the status stamped on a document when the user commits it.
const StatusPlanned = "planned"

//go:embed schema.json
var schemaJSON []byte

var documentSchema = gojsonschema.NewBytesLoader(schemaJSON)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// Document is a complete itinerary as produced by the planning backend.
type Document struct {
	TravelTheme       string    `json:"travel_theme,omitempty"`
	Description       string    `json:"description,omitempty"`
	DepartureLocation string    `json:"departure_location"`
	Destination       string    `json:"destination"`
	NumPeople         Number    `json:"num_peoples,omitempty"`
	Duration          Text      `json:"duration"`
	StartDate         string    `json:"start_date"`
	EndDate           string    `json:"end_date,omitempty"`
	Features          string    `json:"features"`
	Status            string    `json:"status,omitempty"`
	Days              []DayPlan `json:"days"`

	// raw is the exact JSON the document was parsed from. Commit sends it
	// back with only the status changed.
	raw json.RawMessage
}

// DayPlan is one day of the trip.
type DayPlan struct {
	DailyTheme        string         `json:"daily_theme"`
	ItineraryLocation string         `json:"itinerary_location,omitempty"`
	Day               string         `json:"day,omitempty"`
	Transportation    string         `json:"transportation,omitempty"`
	Accommodation     *Accommodation `json:"accommodation,omitempty"`
	Segments          []Segment      `json:"segments"`
}

// Accommodation is where the travellers sleep on a given day.
type Accommodation struct {
	HotelID       Text   `json:"hotel_id,omitempty"`
	Name          string `json:"name"`
	URL           string `json:"url,omitempty"`
	Address       string `json:"address"`
	Price         Number `json:"price,omitempty"`
	Currency      string `json:"currency,omitempty"`
	ReviewScore   Number `json:"review_score,omitempty"`
	ReviewCount   Number `json:"review_count,omitempty"`
	ArrivalDate   string `json:"arrival_date,omitempty"`
	DepartureDate string `json:"departure_date,omitempty"`
}

// Segment groups the activities of a time slot (morning, afternoon, ...).
type Segment struct {
	TimeSlot   string     `json:"time_slot"`
	Activities []Activity `json:"activities"`
}

// Activity is a single planned stop.
type Activity struct {
	Name              string `json:"activity_name"`
	Type              string `json:"type"`
	Location          string `json:"activity_location"`
	Description       string `json:"description"`
	EstimatedDuration string `json:"estimated_duration,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

// =============================================================================
// FLEXIBLE SCALARS
// =============================================================================

// Number accepts a JSON number, a numeric string, an empty string, or null.
// Generators are loose about numeric fields; none of those forms should
// reject an otherwise valid plan.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("itinerary: %q is not a number", s)
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// String formats the number without a trailing ".0" for whole values.
func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

// Text accepts a JSON string, a number, or null and keeps it as text.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*t = Text(num.String())
	return nil
}

// =============================================================================
// PARSING
// =============================================================================

// ErrInvalidDocument is wrapped by every Parse failure.
var ErrInvalidDocument = errors.New("invalid itinerary document")

// SchemaError lists the structural problems found in a document.
type SchemaError struct {
	Problems []string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("itinerary schema: %s", strings.Join(e.Problems, "; "))
}

// Unwrap lets errors.Is match ErrInvalidDocument.
func (e *SchemaError) Unwrap() error {
	return ErrInvalidDocument
}

// Parse validates and decodes an itinerary document.
func Parse(data []byte) (*Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidDocument)
	}

	result, err := gojsonschema.Validate(documentSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, &SchemaError{Problems: problems}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	doc.raw = append(json.RawMessage(nil), data...)
	return &doc, nil
}

// Raw returns the JSON the document was parsed from.
func (d *Document) Raw() json.RawMessage {
	return d.raw
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.raw = append(json.RawMessage(nil), d.raw...)
	c.Days = make([]DayPlan, len(d.Days))
	for i, day := range d.Days {
		c.Days[i] = day
		if day.Accommodation != nil {
			acc := *day.Accommodation
			c.Days[i].Accommodation = &acc
		}
		c.Days[i].Segments = make([]Segment, len(day.Segments))
		for j, seg := range day.Segments {
			c.Days[i].Segments[j] = Segment{
				TimeSlot:   seg.TimeSlot,
				Activities: append([]Activity(nil), seg.Activities...),
			}
		}
	}
	return &c
}

// WithStatus returns the JSON body for a status update: the original
// document, unknown fields included, with "status" replaced.
func (d *Document) WithStatus(status string) ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if len(d.raw) > 0 {
		if err := json.Unmarshal(d.raw, &fields); err != nil {
			return nil, fmt.Errorf("decode stored document: %w", err)
		}
	} else {
		encoded, err := json.Marshal(d)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(encoded, &fields); err != nil {
			return nil, err
		}
	}

	encodedStatus, err := json.Marshal(status)
	if err != nil {
		return nil, err
	}
	fields["status"] = encodedStatus
	return json.Marshal(fields)
}
