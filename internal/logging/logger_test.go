package logging

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTagged(t *testing.T) {
	color.NoColor = true
	core, logs := observer.New(zap.InfoLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}
	tagged := l.Tagged("licm", color.FgGreen)

	tagged.Infof("%s moved %d", tagged.Module(), 2)
	assert.Equal(t, "licm", tagged.Module())
	assert.Equal(t, "", l.Module(), "parent logger is untouched")
	if assert.Equal(t, 1, logs.Len()) {
		assert.Equal(t, "licm moved 2", logs.All()[0].Message)
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil).SugaredLogger)
	l := Nop()
	assert.Same(t, l, OrNop(l))
}
