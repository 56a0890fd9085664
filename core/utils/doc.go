// Package utils provides type conversion helpers shared by the record and
// source packages.
package utils
