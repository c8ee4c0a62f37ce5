package prefilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, Config{Resolution: 1, Samples: 1}.Validate())

	for _, cfg := range []Config{
		{Resolution: 0, Samples: 32},
		{Resolution: -16, Samples: 32},
		{Resolution: 24, Samples: 32},
		{Resolution: 16, Samples: 0},
		{Resolution: 16, Samples: -1},
	} {
		assert.ErrorIs(t, cfg.Validate(), ErrConfiguration, "%+v", cfg)
	}
}

func TestConfigLevels(t *testing.T) {
	assert.Equal(t, 5, Config{Resolution: 16}.Levels())
	assert.Equal(t, 7, Config{Resolution: 64}.Levels())
	assert.Equal(t, 1, Config{Resolution: 1}.Levels())
	assert.Equal(t, 11, Config{Resolution: 1024}.Levels())
}
