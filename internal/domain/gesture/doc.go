// Package gesture recognises the competing drags of the home screen: the
// app drawer, the minimize swipe of an open embed, wallpaper swipes and
// history-dot reordering.
//
// The page forwards raw pointer samples; a Recognizer classifies each drag
// once and, on release, applies the distance and velocity thresholds and
// tells a Dispatcher what to do. It is always Idle between interactions.
package gesture
