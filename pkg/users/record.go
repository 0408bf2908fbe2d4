// Package users defines the Random User record model and the listing filter.
package users

import (
	"unicode"
	"unicode/utf8"
)

// Name is the nested name object of an upstream record.
type Name struct {
	Title string `json:"title,omitempty"`
	First string `json:"first"`
	Last  string `json:"last"`
}

// Full returns first and last name joined by a single space. Empty parts
// are kept, so a missing last name leaves a trailing space.
func (n Name) Full() string {
	return n.First + " " + n.Last
}

// Login carries the upstream identity of a record.
type Login struct {
	UUID string `json:"uuid,omitempty"`
}

// Record is a single user as returned by the upstream API.
// Fields are passed through untouched; only the exporter formats them.
type Record struct {
	Gender string `json:"gender"`
	Name   Name   `json:"name"`
	Email  string `json:"email"`
	Nat    string `json:"nat"`
	Phone  string `json:"phone,omitempty"`
	Cell   string `json:"cell,omitempty"`
	Login  Login  `json:"login,omitempty"`
}

// DisplayGender returns the gender with its first letter upper-cased.
func (r Record) DisplayGender() string {
	return Capitalize(r.Gender)
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + s[size:]
}
