// Test Type: Unit Test
// Description: Project tree builder

package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arthur-debert/isobundle/pkg/testutil"
)

func TestProjectBuilder(t *testing.T) {
	p := testutil.SetupTestProject(t)

	p.AddFile(t, "app/client/index.js", "console.log(1)")
	p.AddSizedFile(t, "app/client/logo.png", 1500, 0x01)
	p.AddPackage(t, "react", "module.exports = {}")
	p.AddConfig(t, "[client]\nentry = \"app/client/index.js\"\n")

	assert.Equal(t, "console.log(1)", p.ReadFile(t, "app/client/index.js"))
	assert.Len(t, p.ReadFile(t, "app/client/logo.png"), 1500)
	assert.Contains(t, p.ReadFile(t, "node_modules/react/package.json"), `"name": "react"`)
	assert.True(t, p.Exists("isobundle.toml"))
	assert.False(t, p.Exists("build"))
}
