package cli

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	for _, v := range []string{"dev", "1.2.0"} {
		t.Run(v, func(t *testing.T) {
			env := setupTestServices(t)
			SetVersion(v)
			t.Cleanup(func() { SetVersion("dev") })

			out, err := execute("", "version")

			require.NoError(t, err)
			assert.Contains(t, out, "pdfchat version "+v+"\n")
			assert.Contains(t, out, runtime.Version())
			assert.Zero(t, env.opens, "version never opens the index")
		})
	}
}
