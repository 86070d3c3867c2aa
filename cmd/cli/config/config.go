package config

import "os"

const defaultAPIURL = "http://localhost:8080"

// APIURL returns the base URL for the maintenance window API.
// It can be overridden with the AQL_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("AQL_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}

// Token returns the bearer token for the API, from AQL_API_TOKEN.
// Tokens are issued by the external authenticator.
func Token() string {
	return os.Getenv("AQL_API_TOKEN")
}
