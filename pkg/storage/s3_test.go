package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelSheetKey(t *testing.T) {
	key := LabelSheetKey("ev-1", 7, "exp-9")
	assert.Equal(t, "labels/ev-1/007-exp-9.html", key)
}
