package main

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// terminalNavigator stands in for a router: the CLI has no pages, so
// navigating to the login route tells the user to log in again.
type terminalNavigator struct {
	lock     sync.Mutex
	location string
}

func (n *terminalNavigator) CurrentLocation() string {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.location
}

func (n *terminalNavigator) Navigate(route string) {
	n.lock.Lock()
	n.location = route
	n.lock.Unlock()
	log.Warn().Str("route", route).Msg("session expired, run `erpclient login` to sign in again")
}
