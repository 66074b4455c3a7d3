package ratelimit

import "strings"

// ClientKey derives the tracking key for a request: "ip:userID" when the
// user is authenticated, the bare IP otherwise.
func ClientKey(ip, userID string) string {
	if userID == "" {
		return ip
	}
	return ip + ":" + userID
}

// LoginKey derives the key for login-specific limiting. The email supplied
// in the request body takes precedence over the IP when present, so an
// attacker rotating addresses still trips the per-account counter.
func LoginKey(ip, email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		return "login:" + email
	}
	return "login:" + ip
}
