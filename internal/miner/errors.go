package miner

import "errors"

var (
	// ErrLoginRequired is returned when no OAuth token is configured.
	ErrLoginRequired = errors.New("login required: no oauth token configured")

	// ErrLoginFailed is returned when the token could not be validated.
	ErrLoginFailed = errors.New("login failed")

	// ErrChannelOffline is returned by a Watcher when the watched stream ended.
	ErrChannelOffline = errors.New("channel offline")
)
