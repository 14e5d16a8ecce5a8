package commands

import (
	"bytes"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestWriteScenarioFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"scenarios/outage.yaml": {Data: []byte("name: outage")},
		"scenarios/save.yml":    {Data: []byte("name: save")},
		"README.md":             {Data: []byte("# readme")},
	}

	var buf bytes.Buffer
	writeScenarioFiles(&buf, fsys)
	assert.Equal(t, "scenarios/outage.yaml\nscenarios/save.yml\n", buf.String())

	buf.Reset()
	writeScenarioFiles(&buf, fstest.MapFS{})
	assert.Empty(t, buf.String())
}
