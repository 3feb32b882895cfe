package logfields

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelpersUseCanonicalKeys(t *testing.T) {
	assert.Equal(t, KeySource, Source("a.md").Key)
	assert.Equal(t, KeyDestination, Destination("a.html").Key)
	assert.Equal(t, KeyTOCFile, TOCFile("toc.json").Key)
	assert.Equal(t, int64(3), Attempt(3).Value.Int64())
}

func TestErrorNil(t *testing.T) {
	assert.Equal(t, "", Error(nil).Value.String())
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}
