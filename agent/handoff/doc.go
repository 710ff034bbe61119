// Package handoff routes travel queries to specialist agents.
//
// Each query runs through a small state machine:
//
//	received → classified → dispatched → specialist_executing
//	                                   → resolved | redelegated | failed
//
// Input guardrails run first; a rejected query fails without any agent
// invocation. Classification is a deterministic keyword score, ties go
// to the general planner. The planner may redelegate to a narrower
// specialist exactly once; a second directive fails the query. Transient
// completion failures are retried at most once, schema validation
// failures never. Identical concurrent queries are collapsed with
// singleflight so the provider sees one call.
package handoff
