/*
Package classrecord is the client SDK for the class record API.

# Overview

Every call goes through a single authenticated request pipeline, Client.Send,
which:

 1. Reads the access token from the injected SessionStore
 2. Refreshes it first if it is locally expired (exp minus ExpiryBuffer, 10s by default)
 3. Attaches the bearer token, API_KEY and SECRET_KEY headers and dispatches
 4. On a 403, refreshes once and re-dispatches once with the new token

A refresh that cannot complete ends the session: the tokens and cached profile
are cleared and the OnSessionExpired hook fires. Before dispatch this surfaces
as ErrSessionExpired; after a 403 the original 403 response is returned.

Concurrent callers that need a refresh at the same time share one in-flight
refresh.

# Usage

	sess := credstore.NewSession(credstore.New(backend, secret))
	client := classrecord.New(classrecord.Config{
		BaseURL:   "http://localhost:8080",
		APIKey:    apiKey,
		SecretKey: apiSecret,
		Endpoints: classrecord.DefaultEndpoints(),
	}, sess)

	login, err := client.Login(ctx, "jdelacruz", "password")
	switch classrecord.RoleToDestination(login.Role) {
	case classrecord.DestinationTeacherDashboard:
		loads, err := client.GetTeachingLoad(ctx)
		...
	}

Typed operations decode JSON bodies; any non-2xx status becomes an *APIError
carrying the server's message.
*/
package classrecord
