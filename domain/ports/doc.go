// Package ports defines the collaborator interfaces the engines consume and
// expose. Implementations live under infrastructure/ and host/; the domain
// packages depend only on these interfaces.
package ports
