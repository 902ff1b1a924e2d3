package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageListContains(t *testing.T) {
	assert.True(t, languageListContains([]string{"eng", "swe"}, "swe"))
	assert.False(t, languageListContains([]string{"eng", "swe"}, "fra"))
	assert.True(t, languageListContains(nil, "anything"), "an unrestricted processor matches every language")
}
