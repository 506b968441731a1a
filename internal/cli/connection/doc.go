// Package connection manages the shell session.
//
// A Manager owns the open table store, the current table, the tee target
// and the session authorizations, and hands out the services that commands
// run against. It implements service.SessionState.
package connection
