// Package tui renders the scoreboard in a terminal.
//
// Render draws one board as a string (podium, then the ranked list). Run
// wraps it in a bubbletea program that redraws whenever the store changes;
// WritePlain prints the same table without styling for pipes and logs.
package tui
