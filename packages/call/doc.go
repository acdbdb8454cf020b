// Package call executes a single JSON HTTP call and folds every possible
// outcome into one result value.
//
// Execute merges a Spec with defaults, builds headers, serializes the body,
// races the transport against a timeout, and classifies what happened:
// success data, application error data, or a network error. It never returns
// an error; callers inspect the Result instead.
package call
