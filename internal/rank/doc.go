// Package rank converts raw scoreboard records into ranked entries.
//
// Everything here is pure: no I/O, no clock, no errors. Scores that cannot be
// read as a number count as 0, so a bad cell moves a participant to the
// bottom of the board instead of removing them.
//
// Ranks are dense with tie-sharing: equal scores share a rank, and the next
// distinct score takes its 1-based position. Scores [50 50 40] rank [1 1 3].
package rank
