package gallery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// ShowMode filters the images a gallery returns
type ShowMode string

const (
	ShowModeAll      ShowMode = "all"
	ShowModeUnmarked ShowMode = "unmarked"
	ShowModeMarked   ShowMode = "marked"
)

// ShowModes lists the modes in the order the side panel offers them
var ShowModes = []ShowMode{ShowModeAll, ShowModeUnmarked, ShowModeMarked}

// Valid reports whether m is one of the known show modes
func (m ShowMode) Valid() bool {
	return slices.Contains(ShowModes, m)
}

// ParseShowMode converts user input into a ShowMode
func ParseShowMode(value string) (ShowMode, error) {
	mode := ShowMode(strings.ToLower(strings.TrimSpace(value)))
	if !mode.Valid() {
		return "", fmt.Errorf("%w: unknown show mode %q", ErrInvalidSettings, value)
	}
	return mode, nil
}

// Gallery is a named collection of images on the picker service
type Gallery struct {
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	Pinned bool   `json:"pinned,omitempty"`
}

// Settings is the single mutable settings record kept by the picker service
type Settings struct {
	SelectedGallery       string   `json:"selected_gallery"`
	ShowMode              ShowMode `json:"show_mode"`
	ShufflePicsWhenLoaded bool     `json:"shuffle_pics_when_loaded"`
}

// Complete reports whether a gallery and a known show mode are selected
func (s Settings) Complete() bool {
	return s.SelectedGallery != "" && s.ShowMode.Valid()
}

// Validate checks settings before they are sent to the service
func (s Settings) Validate() error {
	if strings.TrimSpace(s.SelectedGallery) == "" {
		return fmt.Errorf("%w: no gallery selected", ErrInvalidSettings)
	}
	if !s.ShowMode.Valid() {
		return fmt.Errorf("%w: unknown show mode %q", ErrInvalidSettings, s.ShowMode)
	}
	return nil
}

// Image is a single picture inside a gallery. Name is unique within the gallery.
type Image struct {
	Name    string    `json:"name"`
	URL     string    `json:"url"`
	ModDate time.Time `json:"mod_date"`
	Marked  bool      `json:"marked"`
	IsFav   bool      `json:"is_fav,omitempty"`
}

// UnmarshalJSON accepts the modification time either as mod_date
// (RFC 3339 string or unix number) or as mod_time (unix seconds).
func (i *Image) UnmarshalJSON(data []byte) error {
	type alias Image
	aux := struct {
		*alias
		ModDate json.RawMessage `json:"mod_date"`
		ModTime json.RawMessage `json:"mod_time"`
	}{alias: (*alias)(i)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := aux.ModDate
	if isNullJSON(raw) {
		raw = aux.ModTime
	}

	modDate, err := parseTimestamp(raw)
	if err != nil {
		return fmt.Errorf("image %q: %w", i.Name, err)
	}
	i.ModDate = modDate

	return nil
}

// millisecondThreshold separates unix seconds from unix milliseconds.
// 1e11 seconds is in the year 5138.
const millisecondThreshold = 1e11

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if isNullJSON(raw) {
		return time.Time{}, nil
	}

	if raw[0] == '"' {
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp: %w", err)
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	if number > millisecondThreshold {
		number /= 1000
	}
	sec, frac := math.Modf(number)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC(), nil
}

func isNullJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// SortByModDateDesc orders images most recent first.
// Images with equal timestamps keep their relative order.
func SortByModDateDesc(images []Image) {
	slices.SortStableFunc(images, func(a, b Image) int {
		return b.ModDate.Compare(a.ModDate)
	})
}
