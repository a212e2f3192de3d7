// Package config loads the halfway client configuration.
//
// Configuration is layered, later layers overriding earlier ones:
//
//  1. Built-in defaults
//  2. A YAML file (explicit path, $HALFWAY_CONFIG, or halfway.yaml)
//  3. HALFWAY_* environment variables
//
// Example file:
//
//	server:
//	  url: https://halfway.example
//	  ws_path: /ws
//	session:
//	  store: badger
//	  dir: /var/lib/halfway
//	  ttl: 24h
//	animation:
//	  duration: 2s
//	logging:
//	  level: debug
//
// Environment variables use the section and key in upper case, for
// example HALFWAY_SERVER_URL or HALFWAY_SESSION_STORE.
package config
