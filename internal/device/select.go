package device

import (
	"slices"
	"strings"
)

// Info describes one available audio device.
type Info struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	SystemDefault bool   `json:"system_default"`
}

// selectDevice picks a device from the available list by the fixed preference
// order: explicit user preference, then last-known-good, then the system
// default, then the lexicographically smallest ID. Returns "" only when the
// list is empty.
//
// The lexicographic fallback replaces "whatever the platform enumerated
// first", which varies across boots and made device selection flap.
func selectDevice(available []Info, preferred, lastKnownGood string) string {
	if len(available) == 0 {
		return ""
	}

	if preferred != "" && hasDevice(available, preferred) {
		return preferred
	}
	if lastKnownGood != "" && hasDevice(available, lastKnownGood) {
		return lastKnownGood
	}
	for _, d := range available {
		if d.SystemDefault {
			return d.ID
		}
	}

	smallest := available[0].ID
	for _, d := range available[1:] {
		if strings.Compare(d.ID, smallest) < 0 {
			smallest = d.ID
		}
	}
	return smallest
}

func hasDevice(available []Info, id string) bool {
	return slices.ContainsFunc(available, func(d Info) bool { return d.ID == id })
}
