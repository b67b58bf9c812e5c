// Package credits provides the stateless request layer for the shared
// credit balance: balance inspection, consumption, purchase and package
// comparison. Every call fetches current truth from the server with the
// session manager's bearer token; nothing is cached because staleness here
// has direct billing consequences.
//
// Every method fails fast with a NO_SESSION error and zero network calls
// when unauthenticated. Server errors are surfaced verbatim, except for
// HasSufficientCredits and QuickCheck which are designed as non-fatal
// pre-flight gates and degrade to a negative result instead of failing.
package credits
