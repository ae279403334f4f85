// Package coordinator runs movie store operations off the interactive context
// and delivers their results back on it.
//
// The interactive context is anything that implements Dispatcher: a Loop for
// command-line use, or the bubbletea program in the terminal UI. Each submitted
// operation brackets its work with Store.Open and Store.Close, runs on a
// bounded pool of background goroutines, and is delivered exactly once.
// Successful writes are followed by change notifications to attached observers.
//
// Operations on the same record are not serialised against each other; an
// update racing a delete for the same id is resolved by SQLite alone.
// There is no cancellation: an operation whose requester went away still runs,
// and its result is dropped if there is no callback to receive it.
package coordinator
