package lrclient

import "time"

type (
	// An Item is a catalog entry as rendered by the server.
	Item struct {
		ID          uint      `json:"id"`
		Name        string    `json:"name"`
		Deps        []string  `json:"deps"`
		RequiredBy  []string  `json:"required_by"`
		Tags        []string  `json:"tags"`
		Image       *string   `json:"image"`
		Description string    `json:"desc"`
		File        string    `json:"file"`
		Service     string    `json:"service"`
		CreatedAt   time.Time `json:"date_created"`
		UpdatedAt   time.Time `json:"date_updated"`
	}

	// Params are used to register a new item.
	Params struct {
		Name    string   `json:"name"`
		Desc    *string  `json:"desc"`
		File    string   `json:"file"`
		Image   *string  `json:"image,omitempty"`
		Service string   `json:"service,omitempty"`
		Tags    []string `json:"tags,omitempty"`
		// Deps are item names (string) or item ids (number).
		Deps []any `json:"deps,omitempty"`
	}

	// A Patch holds the fields to update, a nil value clears the field.
	Patch map[string]any

	// A Filter restricts the item listing.
	Filter struct {
		Page int
		Tags []string
		Name string
	}
)
