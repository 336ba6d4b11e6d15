package util

import (
	"fmt"

	"github.com/spf13/viper"
)

// ReadConfig loads the config file name (without extension) into viper,
// searching paths in order. flags and viper defaults remain the fallback
// when no file is found.
func ReadConfig(name string, paths ...string) error {
	viper.SetConfigName(name)
	for _, p := range paths {
		viper.AddConfigPath(p)
	}

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %q: %w", name, err)
	}
	return nil
}
