package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressBar_KnownTotal(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressBar(&buf, "paper.pdf")

	p.Update(500, 1000)
	p.Update(1000, 1000)
	assert.Contains(t, buf.String(), "paper.pdf")
	assert.Contains(t, buf.String(), "100%")
	assert.Contains(t, buf.String(), "kB")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"), "complete download ends the line")

	before := buf.Len()
	p.Finish()
	assert.Equal(t, before, buf.Len(), "finish after completion is a no-op")
}

func TestProgressBar_UnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressBar(&buf, "paper.pdf")

	p.Update(2048, -1)
	assert.Contains(t, buf.String(), "paper.pdf")

	p.Finish()
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))

	before := buf.Len()
	p.Finish()
	assert.Equal(t, before, buf.Len())
}

func TestProgressBar_FinishWithoutUpdate(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressBar(&buf, "paper.pdf")

	p.Finish()
	assert.Empty(t, buf.String())
}
