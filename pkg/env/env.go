package env

import "os"

const prefix = "BIZLEDGER_"

// Get returns BIZLEDGER_<key>, then the bare key, then fallback. It serves settings
// read before config.Load, such as the log format.
func Get(key, fallback string) string {
	if val := os.Getenv(prefix + key); val != "" {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// InstanceID names this process in logs: BIZLEDGER_INSTANCE_ID, the platform's DYNO,
// or the hostname.
func InstanceID() string {
	if id := Get("INSTANCE_ID", ""); id != "" {
		return id
	}
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
