// Package specialist implements the three travel agents behind the query
// router: a flight specialist, a hotel specialist, and a general travel
// planner.
//
// Every agent follows the same pipeline: assemble a schema-constrained
// prompt from its role instructions, the catalog tool context, and the
// JSON Schema of its result type; make exactly one completion call;
// extract the JSON payload; validate it through the structured registry.
// Agents are stateless and safe for concurrent use. They never retry;
// retry and delegation policy belong to the router.
//
// The planner is special: instead of a TravelPlan it may answer with a
// handoff directive naming a narrower specialist. The directive travels
// through the error return of Handle and is detected with
// AsHandoffDirective.
package specialist
