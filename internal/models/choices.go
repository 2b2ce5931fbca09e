package models

import (
	"encoding/json"
	"strings"

	"github.com/localnerve/homespace/internal/types"
)

// SpaceAccess is the visibility of a Space.
type SpaceAccess int

const (
	SpaceAccessPrivate SpaceAccess = 1
	SpaceAccessPublic  SpaceAccess = 2
)

var spaceAccessNames = map[string]int{
	"private": int(SpaceAccessPrivate),
	"public":  int(SpaceAccessPublic),
}

// Valid reports whether a is one of the two visibility states.
func (a SpaceAccess) Valid() bool {
	return a == SpaceAccessPrivate || a == SpaceAccessPublic
}

func (a SpaceAccess) String() string {
	switch a {
	case SpaceAccessPrivate:
		return "PRIVATE"
	case SpaceAccessPublic:
		return "PUBLIC"
	}
	return "UNKNOWN"
}

// UnmarshalJSON accepts 1, 2, "private" or "public".
func (a *SpaceAccess) UnmarshalJSON(data []byte) error {
	v, err := types.ParseFlexEnum(data, spaceAccessNames)
	if err != nil {
		return err
	}
	*a = SpaceAccess(v)
	return nil
}

// WidgetType identifies the kind of dashboard card.
type WidgetType int

const (
	WidgetTypeText     WidgetType = 1
	WidgetTypeLink     WidgetType = 10
	WidgetTypeImage    WidgetType = 20
	WidgetTypeDateTime WidgetType = 30
	WidgetTypeWeather  WidgetType = 40
)

var widgetTypeNames = map[string]int{
	"text":     int(WidgetTypeText),
	"link":     int(WidgetTypeLink),
	"image":    int(WidgetTypeImage),
	"datetime": int(WidgetTypeDateTime),
	"weather":  int(WidgetTypeWeather),
}

// Valid reports whether t is one of the enumerated widget types.
func (t WidgetType) Valid() bool {
	switch t {
	case WidgetTypeText, WidgetTypeLink, WidgetTypeImage, WidgetTypeDateTime, WidgetTypeWeather:
		return true
	}
	return false
}

func (t WidgetType) String() string {
	for name, v := range widgetTypeNames {
		if WidgetType(v) == t {
			return strings.ToUpper(name)
		}
	}
	return "UNKNOWN"
}

// UnmarshalJSON accepts the integer value or the lowercase name ("link").
func (t *WidgetType) UnmarshalJSON(data []byte) error {
	v, err := types.ParseFlexEnum(data, widgetTypeNames)
	if err != nil {
		return err
	}
	*t = WidgetType(v)
	return nil
}

// MarshalJSON always renders the integer value.
func (t WidgetType) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(t))
}
