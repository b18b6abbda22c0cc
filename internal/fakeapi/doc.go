// Package fakeapi is an in-memory class record API for local runs and
// integration tests.
//
// It serves the routes in classrecord.DefaultEndpoints with the same
// contract as the production API: API_KEY/SECRET_KEY on every request,
// EdDSA-signed access tokens carrying role and exp, rotating refresh tokens,
// and 403 for any bearer problem. Data lives in memory and is seeded on
// startup.
package fakeapi
