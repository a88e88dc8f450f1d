// Package report is the runtime error-report facility the bridge
// handler subscribes to. Code anywhere in the process publishes error,
// crash, and warning reports to a Hub; subscribed sinks consume them
// synchronously.
//
// The package-level Default hub starts with a stderr sink, standing in
// for a runtime's default error printer. A coordinator that bridges
// runtime reports into the log stream queries the hub's sinks, tears
// down all of them, and subscribes its bridge exclusively.
package report
