// Package notify receives notifications from the workforce service and shows
// each one at most once per session.
//
// A Transport reads the live websocket channel and falls back to polling. Every
// notification it receives goes to a Presenter. The Presenter asks the Ledger
// whether the notification was already shown and, if not, renders an Alert on a
// Sink and acknowledges it. A SummaryBoard keeps the bell badge in step with the
// server's unread count, which is independent of the Ledger.
package notify
