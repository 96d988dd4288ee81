//
// FrankyGo - UCI chess engine in GO for learning purposes
//
// MIT License
//
// Copyright (c) 2018-2020 Frank Kopp
//

package config

// logConfiguration is a data structure to hold the configuration of the
// various loggers used by the engine.
type logConfiguration struct {
	LogLvl       string
	SearchLogLvl string
}

// sets defaults which might be overwritten by config file or cmd line.
func init() {
	Settings.Log.LogLvl = "info"
	Settings.Log.SearchLogLvl = "info"
}

// setupLogLvl sets LogLevel/SearchLogLevel from the textual levels in the
// config file (or their defaults). Command-line overrides are applied by
// the caller after Setup() returns, so they take priority over both.
func setupLogLvl() {
	if Settings.Log.LogLvl != "" {
		LogLevel = logLevelToInt(Settings.Log.LogLvl)
	}
	if Settings.Log.SearchLogLvl != "" {
		SearchLogLevel = logLevelToInt(Settings.Log.SearchLogLvl)
	}
}

// LogLevels maps the go-logging textual levels onto their integer values
// (CRITICAL=0 ... DEBUG=5), for command-line flags to look up directly
// without importing the logging package here (avoiding a config<->logging
// import cycle).
var LogLevels = map[string]int{
	"critical": 0,
	"error":    1,
	"warning":  2,
	"notice":   3,
	"info":     4,
	"debug":    5,
}

func logLevelToInt(lvl string) int {
	if v, ok := LogLevels[lvl]; ok {
		return v
	}
	return 5
}
