// Package password provides the bcrypt-backed credential verifier.
package password
