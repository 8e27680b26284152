/*
Package domain holds the types shared by every layer of the question router:
the conversation State, node identifiers and transitions, audit and lifecycle
events, the failure taxonomy and the user-facing message catalog.

It has no dependencies beyond the standard library so adapters can import it freely.
*/
package domain
