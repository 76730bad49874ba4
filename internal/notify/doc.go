// Package notify sends webhook notifications about the scoreboard.
//
// Rules are "field op value" expressions evaluated against every published
// board and on a periodic tick (so staleness is noticed even when no refresh
// succeeds). A rule fires once, then stays quiet for its cooldown, and sends
// a resolved notice when its condition clears. Optionally, every change of
// the rank-1 names is announced as well.
//
// Deliveries go to Slack, Teams or a generic HTTP endpoint and are throttled
// by a shared rate limiter.
package notify
