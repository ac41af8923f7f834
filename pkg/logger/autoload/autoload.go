// Package autoload initializes the global zerolog logger from LOG_* variables
// when imported for side effects.
package autoload

import (
	configx "github.com/Sampath-yadav/Sahay-Project/pkg/config"
	logx "github.com/Sampath-yadav/Sahay-Project/pkg/logger"
)

func init() {
	conf, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*conf)
}
