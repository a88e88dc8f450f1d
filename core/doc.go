// Package core defines the shared leaf types of the lager framework.
//
// It provides the total order of severity Levels (debug through
// emergency, plus the LevelOff sentinel above all of them), the Entry
// envelope delivered to handlers, and the LevelCache that holds the
// aggregate minimum threshold over all alive handlers.
//
// The LevelCache is the one piece of shared state touched outside the
// coordinator's serialized mailbox: arbitrarily many logging callers
// read it on every call, so reads go through a single atomic load and
// never take a lock. The coordinator is its only writer.
//
// Entry objects are pooled via sync.Pool to keep the dispatch path
// allocation-free once the level gate passes. Callers get an Entry
// with GetEntry and must return it with PutEntry after the bus has
// delivered it.
package core
