// Package profile loads engine profiles from CUE.
//
// A profile carries the per-engine wiring configuration: the enable flag, the
// compiled contract version, and the budget ceilings. Profiles are compiled
// once at startup; there is no hot reload. A profile that fails validation
// never becomes a wiring.Config, so a misconfigured engine fails closed at
// boot instead of at turn time.
package profile
