/*
Package crypto provides the hash function shared by every component that must
agree on a value across ledgers: order hashes, merkle leaves and hashlocks all
use Keccak-256 as defined by the original Keccak submission (not the NIST
SHA3-256 padding).
*/
package crypto
