// SPDX-License-Identifier: MPL-2.0

// Package slice parses slice definition files and models a loaded slice.
//
// A definition file is a sequence of keyword-delimited sections:
//
//	OS
//	debian-8
//
//	DEP
//	wget
//
//	RUN
//	apt-get install -q -y ruby
//
// A file whose first non-blank line is not a keyword is not a slice.
package slice
