// Package store persists vibemix settings and run history in SQLite.
//
// The Store owns the database connection, schema initialization, and the
// small key/value table used to remember choices between runs (such as the
// last selected output directory). Every generation run is also recorded so
// `vibemix history` can show what was produced and why a run failed.
//
// Schema changes bump schemaVersion in schema.go; users delete the database
// to adopt the new schema. Nothing in here is needed for a run to succeed, so
// callers treat store errors as warnings.
package store
