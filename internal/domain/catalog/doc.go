// Package catalog holds the launchable mini-apps: twelve built in, plus any
// found in app.yaml manifests under a configured directory. It keeps launch
// counters for the grid order and last-opened times for the dock.
package catalog
