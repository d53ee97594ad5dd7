package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPhone(t *testing.T) {
	valid := []string{
		"13800000000",
		"13912345678",
		"15000000000",
		"19999999999",
	}
	for _, p := range valid {
		assert.True(t, ValidPhone(p), p)
	}

	invalid := []string{
		"",
		"12800000000",    // second digit out of range
		"23800000000",    // must start with 1
		"1380000000",     // too short
		"138000000000",   // too long
		"13800O00000",    // letter
		" 13800000000",   // leading space
		"13800000000\n",  // trailing newline
		"+8613800000000", // country prefix
		"138-0000-0000",  // separators
	}
	for _, p := range invalid {
		assert.False(t, ValidPhone(p), "%q", p)
	}
}
