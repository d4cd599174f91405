// Package bridge couples a host runtime's values with the logic
// engine's terms.
//
// It converts in both directions and drives one engine query at a
// time as an incremental computation: open a query, pull solutions,
// then cut (keep bindings) or close (drop them).
//
// Term to value:
//
//	atom a         (atom . "a")
//	"s"            "s"
//	42             42
//	[]             nil
//	[H|T]          (H' . T')
//	f(A1,...,An)   (compound "f" A1' ... An')
//	_              variable
//	1.5            float
//	_{a:1}         dict
//	<stream>       blob
//
// Value to term accepts nil, strings, integers and conses only.
//
// Engine exceptions come back as data, (exception . E), while misuse
// of the protocol and conversion failures are host signals.
package bridge
