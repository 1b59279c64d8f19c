package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProject_Location(t *testing.T) {
	assert.Equal(t, time.UTC, Project{}.Location())
	assert.Equal(t, time.UTC, Project{TimeZone: "Mars/Olympus"}.Location())
	assert.Equal(t, "Europe/Moscow", Project{TimeZone: "Europe/Moscow"}.Location().String())
}
