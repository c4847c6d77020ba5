package config

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// class and property names in the string table are single byte strings
var currentCharMap *charmap.Charmap = charmap.Windows1252

var encodingAliases = map[string]*charmap.Charmap{
	"cp1252": charmap.Windows1252,
	"latin1": charmap.ISO8859_1,
	"cp1251": charmap.Windows1251,
	"cp437":  charmap.CodePage437,
}

// SetEncoding selects the charmap by its full name ("Windows 1252") or a short alias.
func SetEncoding(name string) error {
	if cm, ok := encodingAliases[strings.ToLower(name)]; ok {
		currentCharMap = cm
		return nil
	}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			if strings.EqualFold(cm.String(), name) {
				currentCharMap = cm
				return nil
			}
		}
	}
	return errors.Errorf("Failed to find encoding %q", name)
}

func ListEncodings() []string {
	list := make([]string, 0, len(encodingAliases))
	for alias := range encodingAliases {
		list = append(list, alias)
	}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

func GetEncoding() *charmap.Charmap {
	return currentCharMap
}
