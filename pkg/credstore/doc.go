/*
Package credstore keeps session secrets on the device in a tamper-evident way.

Every value written through a Store is wrapped with an integrity tag:

	hex(SHA-256(plaintext || secret)) + ":" + plaintext

and unwrapped on read. The tag is a checksum, not encryption: it guards
against corruption and casual tampering of the backing storage, and anything
that fails the check reads as absent. A damaged store therefore degrades to
"not logged in" instead of an error.

Storage itself is pluggable through Backend. NewMemoryBackend is process-local;
the sqlite subpackage persists across restarts.

Session layers the class record keys (access token, refresh token, cached
profile) over a Store:

	backend, err := sqlite.Open(ctx, "credentials.db")
	store := credstore.New(backend, secret)
	sess := credstore.NewSession(store)

	_ = sess.SetTokens(ctx, access, refresh)
	token, ok := sess.AccessToken(ctx)
*/
package credstore
