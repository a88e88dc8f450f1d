// Package bridgehandler republishes runtime error reports as regular
// log events. The bridge is installed like any other handler so that
// the coordinator supervises it and restarts it after a crash, but its
// event input comes from a report.Hub subscription rather than from
// the handler bus.
package bridgehandler
