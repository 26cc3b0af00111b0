// Package dpc implements a decentralized private computation scheme: a
// transaction protocol that consumes existing shielded records and mints new
// ones while keeping record contents hidden.
//
// Overview:
//   - Records are committed data capsules bound to an owner address, a
//     payload, and birth/death predicate digests
//   - Spending a record reveals only a deterministic serial number, which the
//     ledger uses for double-spend detection
//   - Two proofs accompany every transaction: a core proof over the primary
//     field covering ledger membership, serial-number and commitment
//     derivation, and a predicate proof over a second field covering the
//     delegated predicate verifications
//   - Per-input signatures are re-randomized with the serial-number
//     randomizer, so authorization verifies against the public serial number
//
// Security model:
//   - MiMC over BLS12-377 Fr / BW6-761 Fr for commitments, CRHs and PRFs
//   - Randomizable Schnorr signatures on BLS12-377 G1
//   - Proof systems are consumed through an opaque prover/verifier contract;
//     circuits are external collaborators
//   - All randomness is supplied per call by the caller
//
// References:
//   - ZEXE: Enabling Decentralized Private Computation (Bowe et al., 2018)
//   - https://eprint.iacr.org/2018/962
package dpc
