// Package catalog provides the canned flight, hotel and weather data that
// specialist agents ground their prompt context on.
//
// Everything here is deterministic fixture data: lookups never touch the
// network and always return the same options regardless of the requested
// route or dates. Query parameter extraction is heuristic and failure
// tolerant; a field that cannot be recognized is left at its zero value.
package catalog
