// Package state tracks where each user is in a multi-step dialogue (buying
// views, writing a broadcast) plus scratch values such as the pending video
// link. Sessions are process memory only and are swept after inactivity.
package state
