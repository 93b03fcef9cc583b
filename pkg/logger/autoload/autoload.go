// Package autoload initializes the global logger from LOG_* environment
// variables. Import for side effects in main packages.
package autoload

import (
	configx "github.com/techflow/careline/pkg/config"
	logx "github.com/techflow/careline/pkg/logger"
)

func init() {
	cfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*cfg)
}
