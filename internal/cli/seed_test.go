package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gupta-soham/goodfoods/pkg/store"
)

func TestSeedCommand(t *testing.T) {
	runSeedCmd := func(t *testing.T, args ...string) string {
		t.Helper()

		// Point at an empty config so host config never leaks in
		oldCfg := cfgFile
		cfgFile = filepath.Join(t.TempDir(), "nonexistent.json")
		oldJSON := seedJSON
		t.Cleanup(func() {
			cfgFile = oldCfg
			seedJSON = oldJSON
		})

		output := &bytes.Buffer{}
		cmd := GetRootCmd()
		cmd.SetOut(output)
		cmd.SetArgs(append([]string{"seed"}, args...))

		require.NoError(t, cmd.Execute())
		return output.String()
	}

	t.Run("table output", func(t *testing.T) {
		out := runSeedCmd(t)
		assert.Contains(t, out, "rest_001")
		assert.Contains(t, out, "80 restaurants")
	})

	t.Run("json output", func(t *testing.T) {
		out := runSeedCmd(t, "--json")

		var restaurants []store.Restaurant
		require.NoError(t, json.Unmarshal([]byte(out), &restaurants))
		assert.Len(t, restaurants, 80)
		assert.Equal(t, "rest_001", restaurants[0].ID)
		assert.NotEmpty(t, restaurants[0].OperatingHours)
	})

	t.Run("deterministic", func(t *testing.T) {
		first := runSeedCmd(t)
		second := runSeedCmd(t)
		assert.Equal(t, first, second)
	})
}
