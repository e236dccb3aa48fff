/*
Package custodytest provides fixtures for testing code built on custody:
stores, minted assets and predictable claim token identifiers.
*/
package custodytest
