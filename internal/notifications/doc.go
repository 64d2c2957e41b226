// Package notifications reports generation outcomes to the user.
//
// The ntfy implementation publishes to the topic URL configured in
// config.toml and degrades to a no-op when no topic is set. The completion
// and error toggles suppress individual event kinds without touching callers.
package notifications
