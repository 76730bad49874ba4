// Package config loads and watches the scoreboard configuration file.
//
// Top-level sections:
//   - display: title, logo, brand_color, photos (name -> image path)
//   - source: export_url + format/sheet, or sheets {key_env, sheet_id, range}
//   - refresh: interval (default 10s)
//   - server: http_port, broadcast_interval, ui_dir
//   - log: level, format
//   - notify: leader_changes, rules [], webhooks []
//
// Load(path) reads the YAML file, applies defaults, then validates structure.
// Whether a source is configured at all is not a load error; the refresh
// orchestrator reports it on every cycle instead.
//
// Watch(ctx, path, onChange) uses fsnotify on the containing directory so
// rename-based atomic saves are picked up.
package config
