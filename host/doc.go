// Package host wires the startup pipeline of the application gateway's
// extension side: manifest parsing, contract graph construction, validation,
// and the load sequencer. The Engine it exposes answers contract resolution
// for the RPC dispatch layer once startup completes.
package host
