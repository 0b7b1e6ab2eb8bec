package ui

import (
	"errors"
	"testing"

	"tablo/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestShareCommand(t *testing.T) {
	assert.Equal(t, "tablo --query ''", ShareCommand("", ""))
	assert.Equal(t, "tablo --query page=2", ShareCommand("", "page=2"))
	assert.Equal(t,
		"tablo --endpoint https://api.test/people --query 'search=o'\\''neil&page=1'",
		ShareCommand("https://api.test/people", "search=o'neil&page=1"))
}

func TestCopyShareCmd_Error(t *testing.T) {
	orig := writeClipboard
	writeClipboard = func(string) error { return errors.New("no clipboard") }
	t.Cleanup(func() { writeClipboard = orig })

	msg := copyShareCmd("tablo --query ''")()
	errMsg, ok := msg.(model.ErrorMsg)
	assert.True(t, ok)
	assert.ErrorContains(t, errMsg.Err, "no clipboard")
}
