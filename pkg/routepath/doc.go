// Package routepath splits, parses and serializes navigation URIs.
//
// A URI is cut into path, query string and fragment, in that precedence:
// the fragment is removed first, then the query. Query values without "="
// parse to true. Serialization sorts keys so equal parameter sets always
// produce equal strings, which is what route instance keys rely on.
package routepath
