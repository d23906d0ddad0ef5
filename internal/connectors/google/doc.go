// Package google provides shared infrastructure for Google API connectors.
//
// This package contains common utilities used by the drive and storage
// connectors including:
//   - Service factories building API clients from connection credentials
//   - Error classification for Google API status codes
//   - Rate limiting to respect Google API quotas
//
// # Credentials
//
// A connection authenticates with, in order of preference, a service
// account key in credentials_json, an access token in token, or the
// application default credentials of the host.
//
//	svc, err := google.NewDriveService(ctx, cfg, google.ServiceOptions{})
package google
